package accrual

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"LIBRA-backend/internal/platform/db"
)

// OpenLoan は未返却貸出のうちエンジンが必要とする列だけのビュー
type OpenLoan struct {
	LoanID   int64
	UserID   int64
	LoanDate time.Time
}

// FineRecord は fines テーブルの1行
type FineRecord struct {
	FineID      int64
	FineULID    string
	UserID      int64
	LoanID      int64
	Amount      decimal.Decimal
	Description string
	FineDate    time.Time
	Paid        bool
}

// Ledger は貸出・罰金台帳への読み書き。全メソッドが同一Tx内で呼ばれる前提
type Ledger interface {
	OpenLoans(ctx context.Context, q db.DBTX) ([]OpenLoan, error)
	LatestUnpaidFine(ctx context.Context, q db.DBTX, loanID int64) (*FineRecord, error)
	UpdateFine(ctx context.Context, q db.DBTX, fineID int64, amount decimal.Decimal, description string, at time.Time) error
	InsertFine(ctx context.Context, q db.DBTX, f *FineRecord) error
}

type Store struct{}

func NewStore() *Store { return &Store{} }

// OpenLoans: returned=0 の全件スキャン。
// FOR UPDATE で貸出行をロックし、並行Reconcileを直列化する
func (s *Store) OpenLoans(ctx context.Context, q db.DBTX) ([]OpenLoan, error) {
	const query = `
	SELECT id, user_id, loan_date
	FROM loans
	WHERE returned = 0
	ORDER BY id
	FOR UPDATE`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OpenLoan
	for rows.Next() {
		var l OpenLoan
		if err := rows.Scan(&l.LoanID, &l.UserID, &l.LoanDate); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestUnpaidFine: 対象貸出の未払い罰金のうち最新1件。
// 同時刻はid降順でタイブレーク。更新対象行はロックして返す
func (s *Store) LatestUnpaidFine(ctx context.Context, q db.DBTX, loanID int64) (*FineRecord, error) {
	const query = `
	SELECT id, fine_ulid, user_id, loan_id, amount, description, fine_date, paid
	FROM fines
	WHERE loan_id = ? AND paid = 0
	ORDER BY fine_date DESC, id DESC
	LIMIT 1
	FOR UPDATE`

	var f FineRecord
	err := q.QueryRowContext(ctx, query, loanID).Scan(
		&f.FineID, &f.FineULID, &f.UserID, &f.LoanID,
		&f.Amount, &f.Description, &f.FineDate, &f.Paid,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFine は金額・説明・計算日時を書き換える。paid には触れない。
// 同値更新で RowsAffected=0 になるのは正常（再計算が冪等なケース）
func (s *Store) UpdateFine(ctx context.Context, q db.DBTX, fineID int64, amount decimal.Decimal, description string, at time.Time) error {
	const query = `
	UPDATE fines
	SET amount = ?, description = ?, fine_date = ?
	WHERE id = ? AND paid = 0`

	res, err := q.ExecContext(ctx, query, amount, description, at, fineID)
	if err != nil {
		return err
	}
	_, _ = res.RowsAffected()
	return nil
}

func (s *Store) InsertFine(ctx context.Context, q db.DBTX, f *FineRecord) error {
	const query = `
	INSERT INTO fines
	(fine_ulid, user_id, loan_id, amount, description, fine_date, paid)
	VALUES (?, ?, ?, ?, ?, ?, 0)`

	res, err := q.ExecContext(ctx, query,
		f.FineULID, f.UserID, f.LoanID, f.Amount, f.Description, f.FineDate,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	f.FineID = id
	return nil
}
