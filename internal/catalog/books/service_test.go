package books

import (
	"context"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apierr"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Insert(ctx context.Context, b *Book) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*Book, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*Book), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, b *Book) (int64, error) {
	args := m.Called(ctx, b)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, limit, offset int) ([]Book, error) {
	args := m.Called(ctx, limit, offset)
	if b := args.Get(0); b != nil {
		return b.([]Book), args.Error(1)
	}
	return nil, args.Error(1)
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

var testNow = time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

func newServiceWith(st BookStore) *Service {
	return &Service{store: st, clock: fixedClock{at: testNow}}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func TestCreateBook_DefaultsToOneCopy(t *testing.T) {
	st := new(mockStore)
	st.On("Insert", mock.Anything, mock.MatchedBy(func(b *Book) bool {
		return b.Title == "吾輩は猫である" && b.CopiesAvailable == 1 &&
			b.CreatedAt.Equal(testNow) && b.UpdatedAt.Equal(testNow)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*Book).ID = 3
	}).Return(nil)
	svc := newServiceWith(st)

	res, err := svc.CreateBook(context.Background(), CreateBookRequest{
		Title: "吾輩は猫である", Author: "夏目漱石", CategoryID: 1, ISBN: "9784101010014",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.ID)
	assert.Equal(t, 1, res.CopiesAvailable)
}

func TestCreateBook_DuplicateISBN(t *testing.T) {
	st := new(mockStore)
	st.On("Insert", mock.Anything, mock.Anything).Return(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	svc := newServiceWith(st)

	_, err := svc.CreateBook(context.Background(), CreateBookRequest{
		Title: "t", Author: "a", CategoryID: 1, ISBN: "dup",
	})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeConflict, err.(*apierr.APIError).Code)
}

func TestUpdateBook_PartialUpdate(t *testing.T) {
	st := new(mockStore)
	existing := &Book{ID: 3, Title: "old", Author: "a", CategoryID: 1, ISBN: "x", CopiesAvailable: 2}
	st.On("GetByID", mock.Anything, int64(3)).Return(existing, nil)
	st.On("Update", mock.Anything, mock.MatchedBy(func(b *Book) bool {
		// title だけ差し替え、他フィールドと在庫は据え置き
		return b.Title == "new" && b.Author == "a" && b.CopiesAvailable == 2 &&
			b.UpdatedAt.Equal(testNow)
	})).Return(int64(1), nil)
	svc := newServiceWith(st)

	res, err := svc.UpdateBook(context.Background(), 3, UpdateBookRequest{Title: strPtr("new")})
	require.NoError(t, err)
	assert.Equal(t, "new", res.Title)
	st.AssertExpectations(t)
}

func TestUpdateBook_NotFound(t *testing.T) {
	st := new(mockStore)
	st.On("GetByID", mock.Anything, int64(99)).Return(nil, nil)
	svc := newServiceWith(st)

	_, err := svc.UpdateBook(context.Background(), 99, UpdateBookRequest{Title: strPtr("new")})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeNotFound, err.(*apierr.APIError).Code)
}

func TestUpdateBook_RejectsNegativeCopies(t *testing.T) {
	st := new(mockStore)
	st.On("GetByID", mock.Anything, int64(3)).Return(&Book{ID: 3}, nil)
	svc := newServiceWith(st)

	_, err := svc.UpdateBook(context.Background(), 3, UpdateBookRequest{CopiesAvailable: intPtr(-1)})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeInvalidArgument, err.(*apierr.APIError).Code)
	st.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAvailability(t *testing.T) {
	st := new(mockStore)
	st.On("GetByID", mock.Anything, int64(3)).Return(&Book{ID: 3, CopiesAvailable: 0}, nil)
	svc := newServiceWith(st)

	res, err := svc.Availability(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, 0, res.CopiesAvailable)
}
