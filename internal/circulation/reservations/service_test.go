package reservations

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) ActiveReservationExists(ctx context.Context, q db.DBTX, userID, bookID int64) (bool, error) {
	args := m.Called(ctx, userID, bookID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) BookCopiesForUpdate(ctx context.Context, q db.DBTX, bookID int64) (int, error) {
	args := m.Called(ctx, bookID)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) AdjustBookCopies(ctx context.Context, q db.DBTX, bookID int64, delta int) error {
	args := m.Called(ctx, bookID, delta)
	return args.Error(0)
}

func (m *mockStore) Insert(ctx context.Context, q db.DBTX, r *Reservation) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, q db.DBTX, id int64) (*Reservation, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*Reservation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetByIDForUpdate(ctx context.Context, q db.DBTX, id int64) (*Reservation, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*Reservation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Deactivate(ctx context.Context, q db.DBTX, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, q db.DBTX, limit, offset int) ([]Reservation, error) {
	args := m.Called(ctx, limit, offset)
	if r := args.Get(0); r != nil {
		return r.([]Reservation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListByUser(ctx context.Context, q db.DBTX, userID int64) ([]Reservation, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.([]Reservation), args.Error(1)
	}
	return nil, args.Error(1)
}

type passRunner struct{}

func (passRunner) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx db.DBTX) error) error {
	return fn(ctx, nil)
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

var testNow = time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

func newServiceWith(st ReservationStore) *Service {
	return &Service{runner: passRunner{}, store: st, clock: fixedClock{at: testNow}}
}

func TestCreateReservation(t *testing.T) {
	st := new(mockStore)
	st.On("ActiveReservationExists", mock.Anything, int64(10), int64(3)).Return(false, nil)
	st.On("BookCopiesForUpdate", mock.Anything, int64(3)).Return(2, nil)
	st.On("AdjustBookCopies", mock.Anything, int64(3), -1).Return(nil)
	st.On("Insert", mock.Anything, mock.MatchedBy(func(r *Reservation) bool {
		return r.UserID == 10 && r.BookID == 3 && r.Active && r.ReservationDate.Equal(testNow)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*Reservation).ID = 5
	}).Return(nil)
	svc := newServiceWith(st)

	res, err := svc.CreateReservation(context.Background(), CreateReservationRequest{UserID: 10, BookID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(5), res.ID)
	assert.True(t, res.Active)
	st.AssertExpectations(t)
}

func TestCreateReservation_DuplicateActive(t *testing.T) {
	st := new(mockStore)
	st.On("ActiveReservationExists", mock.Anything, int64(10), int64(3)).Return(true, nil)
	svc := newServiceWith(st)

	_, err := svc.CreateReservation(context.Background(), CreateReservationRequest{UserID: 10, BookID: 3})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeConflict, err.(*apierr.APIError).Code)
	st.AssertNotCalled(t, "AdjustBookCopies", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReservation_NoCopies(t *testing.T) {
	st := new(mockStore)
	st.On("ActiveReservationExists", mock.Anything, int64(10), int64(3)).Return(false, nil)
	st.On("BookCopiesForUpdate", mock.Anything, int64(3)).Return(0, nil)
	svc := newServiceWith(st)

	_, err := svc.CreateReservation(context.Background(), CreateReservationRequest{UserID: 10, BookID: 3})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeConflict, err.(*apierr.APIError).Code)
	st.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestCreateReservation_BookMissing(t *testing.T) {
	st := new(mockStore)
	st.On("ActiveReservationExists", mock.Anything, int64(10), int64(99)).Return(false, nil)
	st.On("BookCopiesForUpdate", mock.Anything, int64(99)).Return(0, sql.ErrNoRows)
	svc := newServiceWith(st)

	_, err := svc.CreateReservation(context.Background(), CreateReservationRequest{UserID: 10, BookID: 99})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeNotFound, err.(*apierr.APIError).Code)
}

func TestCancelReservation_RestoresCopy(t *testing.T) {
	st := new(mockStore)
	st.On("GetByIDForUpdate", mock.Anything, int64(5)).Return(&Reservation{ID: 5, BookID: 3, Active: true}, nil)
	st.On("Deactivate", mock.Anything, int64(5)).Return(int64(1), nil)
	st.On("AdjustBookCopies", mock.Anything, int64(3), 1).Return(nil)
	svc := newServiceWith(st)

	res, err := svc.CancelReservation(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, res.Active)
	st.AssertExpectations(t)
}

func TestFulfillReservation_KeepsCopyOut(t *testing.T) {
	st := new(mockStore)
	st.On("GetByIDForUpdate", mock.Anything, int64(5)).Return(&Reservation{ID: 5, BookID: 3, Active: true}, nil)
	st.On("Deactivate", mock.Anything, int64(5)).Return(int64(1), nil)
	svc := newServiceWith(st)

	res, err := svc.FulfillReservation(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, res.Active)
	st.AssertNotCalled(t, "AdjustBookCopies", mock.Anything, mock.Anything, mock.Anything)
}

func TestFulfillReservation_Inactive(t *testing.T) {
	st := new(mockStore)
	st.On("GetByIDForUpdate", mock.Anything, int64(5)).Return(&Reservation{ID: 5, BookID: 3, Active: false}, nil)
	svc := newServiceWith(st)

	_, err := svc.FulfillReservation(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, apierr.CodeConflict, err.(*apierr.APIError).Code)
}
