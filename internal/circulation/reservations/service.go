package reservations

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type ReservationStore interface {
	ActiveReservationExists(ctx context.Context, q db.DBTX, userID, bookID int64) (bool, error)
	BookCopiesForUpdate(ctx context.Context, q db.DBTX, bookID int64) (int, error)
	AdjustBookCopies(ctx context.Context, q db.DBTX, bookID int64, delta int) error
	Insert(ctx context.Context, q db.DBTX, r *Reservation) error
	GetByID(ctx context.Context, q db.DBTX, id int64) (*Reservation, error)
	GetByIDForUpdate(ctx context.Context, q db.DBTX, id int64) (*Reservation, error)
	Deactivate(ctx context.Context, q db.DBTX, id int64) (int64, error)
	List(ctx context.Context, q db.DBTX, limit, offset int) ([]Reservation, error)
	ListByUser(ctx context.Context, q db.DBTX, userID int64) ([]Reservation, error)
}

// Service は予約と在庫数の整合をトランザクションで守る
type Service struct {
	db     *sql.DB
	runner db.TxRunner
	store  ReservationStore
	clock  Clock
}

func NewService(conn *sql.DB) *Service {
	return &Service{
		db:     conn,
		runner: db.NewRunner(conn),
		store:  NewStore(),
		clock:  realClock{},
	}
}

// CreateReservation は本の行をロックして在庫を1冊確保する。
// 同じ利用者・本の有効予約は1件まで
func (s *Service) CreateReservation(ctx context.Context, req CreateReservationRequest) (*ReservationResponse, error) {
	if req.UserID <= 0 {
		return nil, apierr.Invalid("user_id must be > 0")
	}
	if req.BookID <= 0 {
		return nil, apierr.Invalid("book_id must be > 0")
	}

	r := &Reservation{
		UserID:          req.UserID,
		BookID:          req.BookID,
		ReservationDate: s.clock.Now(),
		Active:          true,
	}

	err := s.runner.RunInTx(ctx, nil, func(ctx context.Context, tx db.DBTX) error {
		exists, err := s.store.ActiveReservationExists(ctx, tx, req.UserID, req.BookID)
		if err != nil {
			return err
		}
		if exists {
			return apierr.Conflict("user already has an active reservation for this book")
		}

		copies, err := s.store.BookCopiesForUpdate(ctx, tx, req.BookID)
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.NotFound("book not found")
		}
		if err != nil {
			return err
		}
		if copies <= 0 {
			return apierr.Conflict("no copies available")
		}

		if err := s.store.AdjustBookCopies(ctx, tx, req.BookID, -1); err != nil {
			return err
		}
		return s.store.Insert(ctx, tx, r)
	})
	if err != nil {
		return nil, err
	}

	resp := r.toDTO()
	return &resp, nil
}

func (s *Service) GetReservation(ctx context.Context, id int64) (*ReservationResponse, error) {
	r, err := s.store.GetByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apierr.NotFound("reservation not found")
	}
	resp := r.toDTO()
	return &resp, nil
}

func (s *Service) ListReservations(ctx context.Context, page, perPage int) ([]ReservationResponse, error) {
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
	return toDTOs(rows), nil
}

func (s *Service) UserReservations(ctx context.Context, userID int64) ([]ReservationResponse, error) {
	if userID <= 0 {
		return nil, apierr.Invalid("user_id must be > 0")
	}
	rows, err := s.store.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

// FulfillReservation は予約を消化する。本は貸し出されるので在庫は戻さない
func (s *Service) FulfillReservation(ctx context.Context, id int64) (*ReservationResponse, error) {
	return s.deactivate(ctx, id, false)
}

// CancelReservation は予約を取り消して確保していた1冊を在庫に戻す
func (s *Service) CancelReservation(ctx context.Context, id int64) (*ReservationResponse, error) {
	return s.deactivate(ctx, id, true)
}

func (s *Service) deactivate(ctx context.Context, id int64, restoreCopy bool) (*ReservationResponse, error) {
	var done *Reservation

	err := s.runner.RunInTx(ctx, nil, func(ctx context.Context, tx db.DBTX) error {
		r, err := s.store.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if r == nil {
			return apierr.NotFound("reservation not found")
		}
		if !r.Active {
			return apierr.Conflict("reservation is no longer active")
		}

		aff, err := s.store.Deactivate(ctx, tx, id)
		if err != nil {
			return err
		}
		if aff == 0 {
			return apierr.Conflict("reservation is no longer active")
		}

		if restoreCopy {
			if err := s.store.AdjustBookCopies(ctx, tx, r.BookID, +1); err != nil {
				return err
			}
		}
		r.Active = false
		done = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := done.toDTO()
	return &resp, nil
}

func toDTOs(rows []Reservation) []ReservationResponse {
	out := make([]ReservationResponse, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDTO())
	}
	return out
}
