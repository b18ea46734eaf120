package loans

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"LIBRA-backend/internal/platform/db"
)

type Store struct{}

func NewStore() *Store { return &Store{} }

var _ LoanStore = (*Store)(nil)

const loanColumns = `id, loan_ulid, user_id, book_id, loan_date, return_date, returned`

func scanLoan(row interface{ Scan(dest ...any) error }) (*Loan, error) {
	var l Loan
	err := row.Scan(&l.ID, &l.LoanULID, &l.UserID, &l.BookID,
		&l.LoanDate, &l.ReturnDate, &l.Returned)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// ActiveLoanExists: 対象の本に未返却の貸出があるか。
// 貸出作成Txの中で呼び、既存行をロックして同じ本の二重貸出を防ぐ
func (s *Store) ActiveLoanExists(ctx context.Context, q db.DBTX, bookID int64) (bool, error) {
	const query = `SELECT id FROM loans WHERE book_id = ? AND returned = 0 LIMIT 1 FOR UPDATE`
	var id int64
	err := q.QueryRowContext(ctx, query, bookID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Insert(ctx context.Context, q db.DBTX, l *Loan) error {
	const query = `
	INSERT INTO loans (loan_ulid, user_id, book_id, loan_date, returned)
	VALUES (?, ?, ?, ?, 0)`

	res, err := q.ExecContext(ctx, query, l.LoanULID, l.UserID, l.BookID, l.LoanDate)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	l.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, q db.DBTX, id int64) (*Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`
	l, err := scanLoan(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetByIDForUpdate: 返却処理用。行ロックして二重返却の競合を防ぐ
func (s *Store) GetByIDForUpdate(ctx context.Context, q db.DBTX, id int64) (*Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = ? FOR UPDATE`
	l, err := scanLoan(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// MarkReturned: returned と return_date を同時に立てる（どちらか片方だけの状態を作らない）
func (s *Store) MarkReturned(ctx context.Context, q db.DBTX, id int64, at time.Time) error {
	const query = `
	UPDATE loans
	SET returned = 1, return_date = ?
	WHERE id = ? AND returned = 0`

	res, err := q.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return errors.New("loan already returned")
	}
	return nil
}

func (s *Store) List(ctx context.Context, q db.DBTX, limit, offset int) ([]Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY loan_date DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, q db.DBTX, id int64) (int64, error) {
	const query = `DELETE FROM loans WHERE id = ?`
	res, err := q.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
