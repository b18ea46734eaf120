package users

import (
	"context"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"LIBRA-backend/internal/platform/apierr"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Insert(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, u *User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) List(ctx context.Context, limit, offset int) ([]User, error) {
	args := m.Called(ctx, limit, offset)
	if u := args.Get(0); u != nil {
		return u.([]User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	args := m.Called(ctx, roleID)
	return args.Bool(0), args.Error(1)
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

var testNow = time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)

func newServiceWith(st UserStore) *Service {
	return &Service{store: st, clock: fixedClock{at: testNow}}
}

func TestRegister(t *testing.T) {
	st := new(mockStore)
	st.On("RoleExists", mock.Anything, int64(2)).Return(true, nil)
	st.On("Insert", mock.Anything, mock.MatchedBy(func(u *User) bool {
		// 平文のまま保存していないこと
		return u.Username == "taro" && u.Password != "secretpass" &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("secretpass")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*User).ID = 11
	}).Return(nil)
	svc := newServiceWith(st)

	res, err := svc.Register(context.Background(), RegisterRequest{
		Username: "taro", Password: "secretpass", Email: "taro@example.com", RoleID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), res.ID)
	st.AssertExpectations(t)
}

func TestRegister_UnknownRole(t *testing.T) {
	st := new(mockStore)
	st.On("RoleExists", mock.Anything, int64(99)).Return(false, nil)
	svc := newServiceWith(st)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "taro", Password: "secretpass", Email: "taro@example.com", RoleID: 99,
	})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeInvalidArgument, err.(*apierr.APIError).Code)
	st.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	st := new(mockStore)
	st.On("RoleExists", mock.Anything, int64(2)).Return(true, nil)
	st.On("Insert", mock.Anything, mock.Anything).Return(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	svc := newServiceWith(st)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "taro", Password: "secretpass", Email: "taro@example.com", RoleID: 2,
	})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeConflict, err.(*apierr.APIError).Code)
}

func TestUpdateUser_RehashesPassword(t *testing.T) {
	st := new(mockStore)
	st.On("GetByID", mock.Anything, int64(11)).Return(&User{ID: 11, Username: "taro", Password: "oldhash", Email: "taro@example.com", RoleID: 2}, nil)
	st.On("Update", mock.Anything, mock.MatchedBy(func(u *User) bool {
		return u.Password != "oldhash" &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("newpassword")) == nil
	})).Return(int64(1), nil)
	svc := newServiceWith(st)

	pw := "newpassword"
	_, err := svc.UpdateUser(context.Background(), 11, UpdateUserRequest{Password: &pw})
	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestUpdateUser_ShortPassword(t *testing.T) {
	st := new(mockStore)
	st.On("GetByID", mock.Anything, int64(11)).Return(&User{ID: 11}, nil)
	svc := newServiceWith(st)

	pw := "short"
	_, err := svc.UpdateUser(context.Background(), 11, UpdateUserRequest{Password: &pw})
	require.Error(t, err)
	assert.Equal(t, apierr.CodeInvalidArgument, err.(*apierr.APIError).Code)
}

func TestDeleteUser_NotFound(t *testing.T) {
	st := new(mockStore)
	st.On("Delete", mock.Anything, int64(99)).Return(int64(0), nil)
	svc := newServiceWith(st)

	err := svc.DeleteUser(context.Background(), 99)
	require.Error(t, err)
	assert.Equal(t, apierr.CodeNotFound, err.(*apierr.APIError).Code)
}
