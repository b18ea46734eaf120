package fines

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"LIBRA-backend/internal/platform/apierr"
)

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface{ NewULID(t time.Time) string }

type ulidGen struct{}

func (ulidGen) NewULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Service は罰金の手動CRUD。自動計算は accrual.Engine 側で、ここは読みと単行操作のみ
type Service struct {
	store FineStore
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db), clock: realClock{}, id: ulidGen{}}
}

func (s *Service) CreateFine(ctx context.Context, req CreateFineRequest) (*FineResponse, error) {
	if req.UserID <= 0 {
		return nil, apierr.Invalid("user_id must be > 0")
	}
	if req.LoanID <= 0 {
		return nil, apierr.Invalid("loan_id must be > 0")
	}
	if req.Amount.IsNegative() {
		return nil, apierr.Invalid("amount must be >= 0")
	}

	now := s.clock.Now()
	f := &Fine{
		FineULID:    s.id.NewULID(now),
		UserID:      req.UserID,
		LoanID:      req.LoanID,
		Amount:      req.Amount,
		Description: req.Description,
		FineDate:    now,
		Paid:        false,
	}
	if err := s.store.Insert(ctx, f); err != nil {
		return nil, err
	}

	resp := f.toDTO()
	return &resp, nil
}

func (s *Service) GetFine(ctx context.Context, id int64) (*FineResponse, error) {
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, apierr.NotFound("fine not found")
	}
	resp := f.toDTO()
	return &resp, nil
}

// PayFine は支払い済みフラグを立てる。以後この行はエンジンからも凍結される
func (s *Service) PayFine(ctx context.Context, id int64) (*FineResponse, error) {
	f, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, apierr.NotFound("fine not found")
	}
	if f.Paid {
		return nil, apierr.Conflict("fine already paid")
	}

	aff, err := s.store.MarkPaid(ctx, id)
	if err != nil {
		return nil, err
	}
	if aff == 0 {
		// GetByID との間で別リクエストが支払った
		return nil, apierr.Conflict("fine already paid")
	}

	f.Paid = true
	resp := f.toDTO()
	return &resp, nil
}

func (s *Service) DeleteFine(ctx context.Context, id int64) error {
	aff, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.NotFound("fine not found")
	}
	return nil
}

// ListFines は単純なページ読み取り。ここでは一切書き込みをしない
func (s *Service) ListFines(ctx context.Context, page, perPage int) ([]FineResponse, error) {
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
	return toDTOs(rows), nil
}

func (s *Service) UserFines(ctx context.Context, userID int64) ([]FineResponse, error) {
	if userID <= 0 {
		return nil, apierr.Invalid("user_id must be > 0")
	}
	rows, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

func toDTOs(rows []Fine) []FineResponse {
	out := make([]FineResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDTO())
	}
	return out
}
