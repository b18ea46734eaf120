package histories

import (
	"context"
	"database/sql"

	"LIBRA-backend/internal/platform/apierr"
)

type Service struct{ store HistoryStore }

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db)}
}

func (s *Service) CreateHistory(ctx context.Context, req CreateHistoryRequest) (*HistoryResponse, error) {
	if req.UserID <= 0 {
		return nil, apierr.Invalid("user_id must be > 0")
	}
	if req.BookID <= 0 {
		return nil, apierr.Invalid("book_id must be > 0")
	}
	if req.Returned && req.ReturnDate == nil {
		return nil, apierr.Invalid("return_date is required when returned is true")
	}

	h := &History{
		UserID:   req.UserID,
		BookID:   req.BookID,
		LoanDate: req.LoanDate,
		Returned: req.Returned,
	}
	if req.ReturnDate != nil {
		h.ReturnDate = sql.NullTime{Time: *req.ReturnDate, Valid: true}
	}

	if err := s.store.Insert(ctx, h); err != nil {
		return nil, err
	}
	resp := h.toDTO()
	return &resp, nil
}

func (s *Service) GetHistory(ctx context.Context, id int64) (*HistoryResponse, error) {
	h, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, apierr.NotFound("history not found")
	}
	resp := h.toDTO()
	return &resp, nil
}

func (s *Service) ListHistories(ctx context.Context, page, perPage int) ([]HistoryResponse, error) {
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
	out := make([]HistoryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDTO())
	}
	return out, nil
}
