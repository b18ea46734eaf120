package roles

import (
	"context"
	"database/sql"

	"LIBRA-backend/internal/platform/apierr"
)

type Service struct{ store RoleStore }

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) CreateRole(ctx context.Context, req RoleRequest) (*RoleResponse, error) {
	r := &Role{Name: req.Name}
	if err := s.store.Insert(ctx, r); err != nil {
		if apierr.IsDuplicate(err) {
			return nil, apierr.Conflict("role name already exists")
		}
		return nil, err
	}
	resp := r.toDTO()
	return &resp, nil
}

func (s *Service) GetRole(ctx context.Context, id int64) (*RoleResponse, error) {
	r, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apierr.NotFound("role not found")
	}
	resp := r.toDTO()
	return &resp, nil
}

func (s *Service) UpdateRole(ctx context.Context, id int64, req RoleRequest) (*RoleResponse, error) {
	r := &Role{ID: id, Name: req.Name}
	aff, err := s.store.Update(ctx, r)
	if err != nil {
		if apierr.IsDuplicate(err) {
			return nil, apierr.Conflict("role name already exists")
		}
		return nil, err
	}
	if aff == 0 {
		existing, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apierr.NotFound("role not found")
		}
	}
	resp := r.toDTO()
	return &resp, nil
}

func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	aff, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.NotFound("role not found")
	}
	return nil
}

func (s *Service) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoleResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDTO())
	}
	return out, nil
}
