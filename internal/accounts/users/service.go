package users

import (
	"context"
	"database/sql"
	"time"

	"golang.org/x/crypto/bcrypt"

	"LIBRA-backend/internal/platform/apierr"
)

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type Service struct {
	store UserStore
	clock Clock
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db), clock: realClock{}}
}

// Register は利用者登録。username/email の一意性はDB制約に任せて 1062 を CONFLICT に読み替える
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	ok, err := s.store.RoleExists(ctx, req.RoleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierr.Invalid("role_id does not exist")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:  req.Username,
		Password:  string(hash),
		Email:     req.Email,
		RoleID:    req.RoleID,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.Insert(ctx, u); err != nil {
		if apierr.IsDuplicate(err) {
			return nil, apierr.Conflict("username or email already registered")
		}
		return nil, err
	}

	resp := u.toDTO()
	return &resp, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*UserResponse, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apierr.NotFound("user not found")
	}
	resp := u.toDTO()
	return &resp, nil
}

func (s *Service) UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*UserResponse, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apierr.NotFound("user not found")
	}

	if req.Username != nil {
		if *req.Username == "" {
			return nil, apierr.Invalid("username must not be empty")
		}
		u.Username = *req.Username
	}
	if req.Email != nil {
		if *req.Email == "" {
			return nil, apierr.Invalid("email must not be empty")
		}
		u.Email = *req.Email
	}
	if req.RoleID != nil {
		ok, err := s.store.RoleExists(ctx, *req.RoleID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apierr.Invalid("role_id does not exist")
		}
		u.RoleID = *req.RoleID
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			return nil, apierr.Invalid("password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		u.Password = string(hash)
	}

	if _, err := s.store.Update(ctx, u); err != nil {
		if apierr.IsDuplicate(err) {
			return nil, apierr.Conflict("username or email already registered")
		}
		return nil, err
	}

	resp := u.toDTO()
	return &resp, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	aff, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.NotFound("user not found")
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context, page, perPage int) ([]UserResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	rows, err := s.store.List(ctx, perPage, offset)
	if err != nil {
		return nil, err
	}
	out := make([]UserResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDTO())
	}
	return out, nil
}
