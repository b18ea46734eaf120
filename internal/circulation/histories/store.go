package histories

import (
	"context"
	"database/sql"
	"errors"
)

type HistoryStore interface {
	Insert(ctx context.Context, h *History) error
	GetByID(ctx context.Context, id int64) (*History, error)
	List(ctx context.Context, limit, offset int) ([]History, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

var _ HistoryStore = (*Store)(nil)

const historyColumns = `id, user_id, book_id, loan_date, return_date, returned`

func scanHistory(row interface{ Scan(dest ...any) error }) (*History, error) {
	var h History
	err := row.Scan(&h.ID, &h.UserID, &h.BookID, &h.LoanDate, &h.ReturnDate, &h.Returned)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Store) Insert(ctx context.Context, h *History) error {
	const query = `
	INSERT INTO loan_history (user_id, book_id, loan_date, return_date, returned)
	VALUES (?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query, h.UserID, h.BookID, h.LoanDate, h.ReturnDate, h.Returned)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	h.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*History, error) {
	query := `SELECT ` + historyColumns + ` FROM loan_history WHERE id = ?`
	h, err := scanHistory(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]History, error) {
	query := `SELECT ` + historyColumns + ` FROM loan_history ORDER BY loan_date DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []History
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
