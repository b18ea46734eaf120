package books

import (
	"context"
	"database/sql"
	"time"

	"LIBRA-backend/internal/platform/apierr"
)

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type Service struct {
	store BookStore
	clock Clock
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db), clock: realClock{}}
}

func (s *Service) CreateBook(ctx context.Context, req CreateBookRequest) (*BookResponse, error) {
	if req.CategoryID <= 0 {
		return nil, apierr.Invalid("category_id must be > 0")
	}
	copies := 1
	if req.CopiesAvailable != nil {
		if *req.CopiesAvailable < 0 {
			return nil, apierr.Invalid("copies_available must be >= 0")
		}
		copies = *req.CopiesAvailable
	}

	now := s.clock.Now()
	b := &Book{
		Title:           req.Title,
		Author:          req.Author,
		CategoryID:      req.CategoryID,
		ISBN:            req.ISBN,
		CopiesAvailable: copies,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		if apierr.IsDuplicate(err) {
			return nil, apierr.Conflict("isbn already registered")
		}
		return nil, err
	}

	resp := b.toDTO()
	return &resp, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (*BookResponse, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apierr.NotFound("book not found")
	}
	resp := b.toDTO()
	return &resp, nil
}

// UpdateBook は指定されたフィールドだけを差し替える部分更新
func (s *Service) UpdateBook(ctx context.Context, id int64, req UpdateBookRequest) (*BookResponse, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apierr.NotFound("book not found")
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, apierr.Invalid("title must not be empty")
		}
		b.Title = *req.Title
	}
	if req.Author != nil {
		if *req.Author == "" {
			return nil, apierr.Invalid("author must not be empty")
		}
		b.Author = *req.Author
	}
	if req.CategoryID != nil {
		if *req.CategoryID <= 0 {
			return nil, apierr.Invalid("category_id must be > 0")
		}
		b.CategoryID = *req.CategoryID
	}
	if req.ISBN != nil {
		if *req.ISBN == "" {
			return nil, apierr.Invalid("isbn must not be empty")
		}
		b.ISBN = *req.ISBN
	}
	if req.CopiesAvailable != nil {
		if *req.CopiesAvailable < 0 {
			return nil, apierr.Invalid("copies_available must be >= 0")
		}
		b.CopiesAvailable = *req.CopiesAvailable
	}
	b.UpdatedAt = s.clock.Now()

	if _, err := s.store.Update(ctx, b); err != nil {
		if apierr.IsDuplicate(err) {
			return nil, apierr.Conflict("isbn already registered")
		}
		return nil, err
	}

	resp := b.toDTO()
	return &resp, nil
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	aff, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.NotFound("book not found")
	}
	return nil
}

func (s *Service) ListBooks(ctx context.Context, page, perPage int) ([]BookResponse, error) {
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
	out := make([]BookResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDTO())
	}
	return out, nil
}

func (s *Service) Availability(ctx context.Context, id int64) (*AvailabilityResponse, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apierr.NotFound("book not found")
	}
	return &AvailabilityResponse{
		BookID:          b.ID,
		CopiesAvailable: b.CopiesAvailable,
		Available:       b.CopiesAvailable > 0,
	}, nil
}
