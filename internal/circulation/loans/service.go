package loans

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"LIBRA-backend/internal/circulation/accrual"
	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
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

type LoanStore interface {
	ActiveLoanExists(ctx context.Context, q db.DBTX, bookID int64) (bool, error)
	Insert(ctx context.Context, q db.DBTX, l *Loan) error
	GetByID(ctx context.Context, q db.DBTX, id int64) (*Loan, error)
	GetByIDForUpdate(ctx context.Context, q db.DBTX, id int64) (*Loan, error)
	MarkReturned(ctx context.Context, q db.DBTX, id int64, at time.Time) error
	List(ctx context.Context, q db.DBTX, limit, offset int) ([]Loan, error)
	Delete(ctx context.Context, q db.DBTX, id int64) (int64, error)
}

// Service は貸出・返却の業務処理。書き込みは必ずトランザクション内で行う
type Service struct {
	db     *sql.DB
	runner db.TxRunner
	store  LoanStore
	clock  Clock
	id     IDGen
	policy accrual.Policy
}

func NewService(conn *sql.DB, policy accrual.Policy) *Service {
	return &Service{
		db:     conn,
		runner: db.NewRunner(conn),
		store:  NewStore(),
		clock:  realClock{},
		id:     ulidGen{},
		policy: policy,
	}
}

// CreateLoan は同じ本の未返却貸出がないことをロック付きで確認してから行を作る
func (s *Service) CreateLoan(ctx context.Context, req CreateLoanRequest) (*LoanResponse, error) {
	if req.UserID <= 0 {
		return nil, apierr.Invalid("user_id must be > 0")
	}
	if req.BookID <= 0 {
		return nil, apierr.Invalid("book_id must be > 0")
	}

	now := s.clock.Now()
	l := &Loan{
		LoanULID: s.id.NewULID(now),
		UserID:   req.UserID,
		BookID:   req.BookID,
		LoanDate: now,
	}

	err := s.runner.RunInTx(ctx, nil, func(ctx context.Context, tx db.DBTX) error {
		active, err := s.store.ActiveLoanExists(ctx, tx, req.BookID)
		if err != nil {
			return err
		}
		if active {
			return apierr.Conflict("book is already on loan")
		}
		return s.store.Insert(ctx, tx, l)
	})
	if err != nil {
		return nil, err
	}

	resp := l.toDTO()
	return &resp, nil
}

// ReturnLoan は行ロック後に returned を立てる。二重返却は CONFLICT
func (s *Service) ReturnLoan(ctx context.Context, id int64) (*LoanResponse, error) {
	var returned *Loan

	err := s.runner.RunInTx(ctx, nil, func(ctx context.Context, tx db.DBTX) error {
		l, err := s.store.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if l == nil {
			return apierr.NotFound("loan not found")
		}
		if l.Returned {
			return apierr.Conflict("loan already returned")
		}

		now := s.clock.Now()
		if err := s.store.MarkReturned(ctx, tx, id, now); err != nil {
			return err
		}
		l.Returned = true
		l.ReturnDate = sql.NullTime{Time: now, Valid: true}
		returned = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := returned.toDTO()
	return &resp, nil
}

func (s *Service) GetLoan(ctx context.Context, id int64) (*LoanResponse, error) {
	l, err := s.store.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apierr.NotFound("loan not found")
	}
	resp := l.toDTO()
	return &resp, nil
}

func (s *Service) ListLoans(ctx context.Context, page, perPage int) ([]LoanResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}
	offset := (page - 1) * perPage

	rows, err := s.store.List(ctx, s.db, perPage, offset)
	if err != nil {
		return nil, err
	}
	out := make([]LoanResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDTO())
	}
	return out, nil
}

func (s *Service) DeleteLoan(ctx context.Context, id int64) error {
	aff, err := s.store.Delete(ctx, s.db, id)
	if err != nil {
		return err
	}
	if aff == 0 {
		return apierr.NotFound("loan not found")
	}
	return nil
}

// LateFee は現時点の延滞料金を査定して返すだけで、台帳には一切書かない
func (s *Service) LateFee(ctx context.Context, id int64) (*LateFeeResponse, error) {
	l, err := s.store.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apierr.NotFound("loan not found")
	}

	resp := &LateFeeResponse{LoanID: l.ID, LateFee: decimal.Zero}
	if l.Returned {
		return resp, nil
	}

	a, due := s.policy.Assess(l.LoanDate, s.clock.Now())
	if !due {
		return resp, nil
	}
	resp.OverdueDays = a.OverdueDays
	resp.LateFee = a.Amount
	resp.Description = a.Description
	return resp, nil
}
