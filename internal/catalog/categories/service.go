package categories

import (
	"context"
	"database/sql"

	"LIBRA-backend/internal/platform/apierr"
)

type Service struct{ store CategoryStore }

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) CreateCategory(ctx context.Context, req CategoryRequest) (*CategoryResponse, error) {
	c := &Category{Name: req.Name}
	if err := s.store.Insert(ctx, c); err != nil {
		if apierr.IsDuplicate(err) {
			return nil, apierr.Conflict("category name already exists")
		}
		return nil, err
	}
	resp := c.toDTO()
	return &resp, nil
}

func (s *Service) GetCategory(ctx context.Context, id int64) (*CategoryResponse, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apierr.NotFound("category not found")
	}
	resp := c.toDTO()
	return &resp, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id int64, req CategoryRequest) (*CategoryResponse, error) {
	c := &Category{ID: id, Name: req.Name}
	aff, err := s.store.Update(ctx, c)
	if err != nil {
		if apierr.IsDuplicate(err) {
			return nil, apierr.Conflict("category name already exists")
		}
		return nil, err
	}
	if aff == 0 {
		// 同名更新でも RowsAffected=0 になるため存在確認で切り分ける
		existing, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apierr.NotFound("category not found")
		}
	}
	resp := c.toDTO()
	return &resp, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	aff, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.NotFound("category not found")
	}
	return nil
}

func (s *Service) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDTO())
	}
	return out, nil
}
