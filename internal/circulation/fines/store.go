package fines

import (
	"context"
	"database/sql"
	"errors"
)

// FineStore はサービス層から見た罰金台帳。テストではモックに差し替える
type FineStore interface {
	Insert(ctx context.Context, f *Fine) error
	GetByID(ctx context.Context, id int64) (*Fine, error)
	MarkPaid(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	List(ctx context.Context, limit, offset int) ([]Fine, error)
	ListByUser(ctx context.Context, userID int64) ([]Fine, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const fineColumns = `id, fine_ulid, user_id, loan_id, amount, description, fine_date, paid`

func scanFine(row interface{ Scan(dest ...any) error }) (*Fine, error) {
	var f Fine
	err := row.Scan(&f.ID, &f.FineULID, &f.UserID, &f.LoanID,
		&f.Amount, &f.Description, &f.FineDate, &f.Paid)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Store) Insert(ctx context.Context, f *Fine) error {
	const q = `
	INSERT INTO fines (fine_ulid, user_id, loan_id, amount, description, fine_date, paid)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, q,
		f.FineULID, f.UserID, f.LoanID, f.Amount, f.Description, f.FineDate, f.Paid,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	f.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Fine, error) {
	q := `SELECT ` + fineColumns + ` FROM fines WHERE id = ?`
	f, err := scanFine(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// MarkPaid: すでに支払い済みなら0行更新になる
func (s *Store) MarkPaid(ctx context.Context, id int64) (int64, error) {
	const q = `UPDATE fines SET paid = 1 WHERE id = ? AND paid = 0`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	const q = `DELETE FROM fines WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Fine, error) {
	q := `SELECT ` + fineColumns + ` FROM fines ORDER BY fine_date DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFines(rows)
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]Fine, error) {
	q := `SELECT ` + fineColumns + ` FROM fines WHERE user_id = ? ORDER BY fine_date DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFines(rows)
}

func collectFines(rows *sql.Rows) ([]Fine, error) {
	var out []Fine
	for rows.Next() {
		f, err := scanFine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ FineStore = (*Store)(nil)
