package accrual

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/db"
)

// 呼び出し側がリトライ判断できるよう、失敗は3種に分類する
var (
	ErrLedgerRead  = errors.New("accrual: ledger read failed")
	ErrLedgerWrite = errors.New("accrual: ledger write failed")
	ErrConflict    = errors.New("accrual: concurrent reconcile conflict")
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

// Summary は1パスの結果。テストと運用ログのために件数を返す
type Summary struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Engine は未返却貸出を走査し、未払い罰金行を現在時刻基準に同期させる
type Engine struct {
	runner  db.TxRunner
	ledger  Ledger
	policy  Policy
	id      IDGen
	timeout time.Duration

	// プロセス内の直列化。行ロック(FOR UPDATE)と併用する
	mu sync.Mutex
}

func NewEngine(database *sql.DB, policy Policy, timeout time.Duration) *Engine {
	return &Engine{
		runner:  db.NewRunner(database),
		ledger:  NewStore(),
		policy:  policy,
		id:      ulidGen{},
		timeout: timeout,
	}
}

func (e *Engine) Policy() Policy { return e.policy }

// Reconcile は now 時点の延滞状態を罰金台帳に反映する。
// 全読み書きが1つのTxで行われ、失敗時は何も書かれない。
// 同じ now ・同じ貸出集合に対しては冪等。
func (e *Engine) Reconcile(ctx context.Context, now time.Time) (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	var sum Summary
	err := e.runner.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx db.DBTX) error {
		loans, err := e.ledger.OpenLoans(ctx, tx)
		if err != nil {
			return classify(err, ErrLedgerRead)
		}
		sum.Scanned = len(loans)

		for _, loan := range loans {
			a, due := e.policy.Assess(loan.LoanDate, now)
			if !due {
				// 猶予期間内。既存の罰金行があっても触らない
				continue
			}

			existing, err := e.ledger.LatestUnpaidFine(ctx, tx, loan.LoanID)
			if err != nil {
				return classify(err, ErrLedgerRead)
			}

			if existing != nil {
				// 未払い行を更新。paid=1 の行はクエリ対象外なので凍結されたまま
				if err := e.ledger.UpdateFine(ctx, tx, existing.FineID, a.Amount, a.Description, now); err != nil {
					return classify(err, ErrLedgerWrite)
				}
				sum.Updated++
				continue
			}

			// 過去に支払い済みの罰金しか無い場合も新規行を起こす（元仕様を踏襲）
			f := &FineRecord{
				FineULID:    e.id.NewULID(now),
				UserID:      loan.UserID,
				LoanID:      loan.LoanID,
				Amount:      a.Amount,
				Description: a.Description,
				FineDate:    now,
				Paid:        false,
			}
			if err := e.ledger.InsertFine(ctx, tx, f); err != nil {
				return classify(err, ErrLedgerWrite)
			}
			sum.Created++
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func classify(err error, kind error) error {
	if apierr.IsLockConflict(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return fmt.Errorf("%w: %v", kind, err)
}
