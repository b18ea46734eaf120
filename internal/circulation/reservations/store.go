package reservations

import (
	"context"
	"database/sql"
	"errors"

	"LIBRA-backend/internal/platform/db"
)

type Store struct{}

func NewStore() *Store { return &Store{} }

var _ ReservationStore = (*Store)(nil)

const reservationColumns = `id, user_id, book_id, reservation_date, active`

func scanReservation(row interface{ Scan(dest ...any) error }) (*Reservation, error) {
	var r Reservation
	err := row.Scan(&r.ID, &r.UserID, &r.BookID, &r.ReservationDate, &r.Active)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ActiveReservationExists: 同じ利用者・本の組で有効な予約が既にあるか
func (s *Store) ActiveReservationExists(ctx context.Context, q db.DBTX, userID, bookID int64) (bool, error) {
	const query = `
	SELECT id FROM book_reservations
	WHERE user_id = ? AND book_id = ? AND active = 1
	LIMIT 1 FOR UPDATE`

	var id int64
	err := q.QueryRowContext(ctx, query, userID, bookID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// BookCopiesForUpdate は本の行をロックして在庫数を返す。本が無ければ (0, sql.ErrNoRows)
func (s *Store) BookCopiesForUpdate(ctx context.Context, q db.DBTX, bookID int64) (int, error) {
	const query = `SELECT copies_available FROM books WHERE id = ? FOR UPDATE`
	var copies int
	err := q.QueryRowContext(ctx, query, bookID).Scan(&copies)
	if err != nil {
		return 0, err
	}
	return copies, nil
}

func (s *Store) AdjustBookCopies(ctx context.Context, q db.DBTX, bookID int64, delta int) error {
	const query = `UPDATE books SET copies_available = copies_available + ? WHERE id = ?`
	_, err := q.ExecContext(ctx, query, delta, bookID)
	return err
}

func (s *Store) Insert(ctx context.Context, q db.DBTX, r *Reservation) error {
	const query = `
	INSERT INTO book_reservations (user_id, book_id, reservation_date, active)
	VALUES (?, ?, ?, 1)`

	res, err := q.ExecContext(ctx, query, r.UserID, r.BookID, r.ReservationDate)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, q db.DBTX, id int64) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM book_reservations WHERE id = ?`
	r, err := scanReservation(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) GetByIDForUpdate(ctx context.Context, q db.DBTX, id int64) (*Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM book_reservations WHERE id = ? FOR UPDATE`
	r, err := scanReservation(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Deactivate は active=1 の行だけを落とす。二重操作は RowsAffected=0 で弾く
func (s *Store) Deactivate(ctx context.Context, q db.DBTX, id int64) (int64, error) {
	const query = `UPDATE book_reservations SET active = 0 WHERE id = ? AND active = 1`
	res, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, q db.DBTX, limit, offset int) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM book_reservations ORDER BY reservation_date DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (s *Store) ListByUser(ctx context.Context, q db.DBTX, userID int64) ([]Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM book_reservations WHERE user_id = ? ORDER BY reservation_date DESC, id DESC`
	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

func collectReservations(rows *sql.Rows) ([]Reservation, error) {
	var out []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
