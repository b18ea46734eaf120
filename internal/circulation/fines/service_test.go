package fines

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/apierr"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Insert(ctx context.Context, f *Fine) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*Fine, error) {
	args := m.Called(ctx, id)
	if f := args.Get(0); f != nil {
		return f.(*Fine), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) MarkPaid(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, limit, offset int) ([]Fine, error) {
	args := m.Called(ctx, limit, offset)
	if f := args.Get(0); f != nil {
		return f.([]Fine), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) ListByUser(ctx context.Context, userID int64) ([]Fine, error) {
	args := m.Called(ctx, userID)
	if f := args.Get(0); f != nil {
		return f.([]Fine), args.Error(1)
	}
	return nil, args.Error(1)
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type fixedIDGen struct{ v string }

func (g fixedIDGen) NewULID(time.Time) string { return g.v }

var testNow = time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

func newServiceWith(st FineStore) *Service {
	return &Service{store: st, clock: fixedClock{at: testNow}, id: fixedIDGen{v: "01TESTULID"}}
}

func TestCreateFine(t *testing.T) {
	st := new(mockStore)
	svc := newServiceWith(st)

	st.On("Insert", mock.Anything, mock.MatchedBy(func(f *Fine) bool {
		return f.UserID == 10 && f.LoanID == 3 && !f.Paid &&
			f.FineULID == "01TESTULID" && f.FineDate.Equal(testNow)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*Fine).ID = 42
	}).Return(nil)

	res, err := svc.CreateFine(context.Background(), CreateFineRequest{
		UserID:      10,
		LoanID:      3,
		Amount:      decimal.RequireFromString("130.00"),
		Description: "manual fine",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.ID)
	assert.False(t, res.Paid)
	st.AssertExpectations(t)
}

func TestCreateFine_Validation(t *testing.T) {
	svc := newServiceWith(new(mockStore))

	_, err := svc.CreateFine(context.Background(), CreateFineRequest{LoanID: 3, Amount: decimal.NewFromInt(1)})
	assert.Equal(t, apierr.CodeInvalidArgument, err.(*apierr.APIError).Code)

	_, err = svc.CreateFine(context.Background(), CreateFineRequest{
		UserID: 1, LoanID: 3, Amount: decimal.NewFromInt(-5),
	})
	assert.Equal(t, apierr.CodeInvalidArgument, err.(*apierr.APIError).Code)
}

func TestGetFine_NotFound(t *testing.T) {
	st := new(mockStore)
	st.On("GetByID", mock.Anything, int64(5)).Return(nil, nil)
	svc := newServiceWith(st)

	_, err := svc.GetFine(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, apierr.CodeNotFound, err.(*apierr.APIError).Code)
}

func TestPayFine(t *testing.T) {
	st := new(mockStore)
	st.On("GetByID", mock.Anything, int64(5)).Return(&Fine{ID: 5, Paid: false}, nil)
	st.On("MarkPaid", mock.Anything, int64(5)).Return(int64(1), nil)
	svc := newServiceWith(st)

	res, err := svc.PayFine(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, res.Paid)
	st.AssertExpectations(t)
}

func TestPayFine_AlreadyPaid(t *testing.T) {
	st := new(mockStore)
	st.On("GetByID", mock.Anything, int64(5)).Return(&Fine{ID: 5, Paid: true}, nil)
	svc := newServiceWith(st)

	_, err := svc.PayFine(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, apierr.CodeConflict, err.(*apierr.APIError).Code)
	st.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
}

func TestPayFine_RacedPayment(t *testing.T) {
	st := new(mockStore)
	st.On("GetByID", mock.Anything, int64(5)).Return(&Fine{ID: 5, Paid: false}, nil)
	st.On("MarkPaid", mock.Anything, int64(5)).Return(int64(0), nil)
	svc := newServiceWith(st)

	_, err := svc.PayFine(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, apierr.CodeConflict, err.(*apierr.APIError).Code)
}

func TestListFines_PagingNormalized(t *testing.T) {
	st := new(mockStore)
	// page=0, per_page=1000 → page=1, per_page=10 に丸める
	st.On("List", mock.Anything, 10, 0).Return([]Fine{{ID: 1}}, nil)
	svc := newServiceWith(st)

	res, err := svc.ListFines(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Len(t, res, 1)
	st.AssertExpectations(t)
}

func TestListFines_EmptyIsNotError(t *testing.T) {
	st := new(mockStore)
	st.On("List", mock.Anything, 10, 10).Return(nil, nil)
	svc := newServiceWith(st)

	res, err := svc.ListFines(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.NotNil(t, res)
}

func TestUserFines_StoreErrorPropagates(t *testing.T) {
	st := new(mockStore)
	boom := errors.New("connection reset")
	st.On("ListByUser", mock.Anything, int64(7)).Return(nil, boom)
	svc := newServiceWith(st)

	_, err := svc.UserFines(context.Background(), 7)
	assert.ErrorIs(t, err, boom)
}
