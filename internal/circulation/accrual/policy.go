// Package accrual は延滞貸出に対する罰金の自動計算・台帳反映を担う。
// 計算（Assess）は純粋関数、反映（Engine.Reconcile）は1パス=1トランザクション。
package accrual

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"LIBRA-backend/internal/platform/db"
)

const (
	defaultGracePeriodDays = 7
	defaultInitialPenalty  = "100"
	defaultDailyPenalty    = "10"
)

// Policy は罰金ポリシー。生成後は書き換えない
type Policy struct {
	GracePeriodDays int
	InitialPenalty  decimal.Decimal
	DailyPenalty    decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		GracePeriodDays: defaultGracePeriodDays,
		InitialPenalty:  decimal.RequireFromString(defaultInitialPenalty),
		DailyPenalty:    decimal.RequireFromString(defaultDailyPenalty),
	}
}

// PolicyFromConfig は設定値からポリシーを組み立てる。未指定はデフォルトで補完
func PolicyFromConfig(cfg db.AccrualConfig) (Policy, error) {
	p := DefaultPolicy()

	if cfg.GracePeriodDays > 0 {
		p.GracePeriodDays = cfg.GracePeriodDays
	}
	if cfg.InitialPenalty != "" {
		v, err := decimal.NewFromString(cfg.InitialPenalty)
		if err != nil {
			return Policy{}, fmt.Errorf("accrual.initial_penalty が不正: %w", err)
		}
		if v.IsNegative() {
			return Policy{}, fmt.Errorf("accrual.initial_penalty は非負であること: %s", cfg.InitialPenalty)
		}
		p.InitialPenalty = v
	}
	if cfg.DailyPenalty != "" {
		v, err := decimal.NewFromString(cfg.DailyPenalty)
		if err != nil {
			return Policy{}, fmt.Errorf("accrual.daily_penalty が不正: %w", err)
		}
		if v.IsNegative() {
			return Policy{}, fmt.Errorf("accrual.daily_penalty は非負であること: %s", cfg.DailyPenalty)
		}
		p.DailyPenalty = v
	}
	return p, nil
}

// Assessment は1件の貸出に対する罰金の査定結果
type Assessment struct {
	OverdueDays int
	Amount      decimal.Decimal
	Description string
}

// Assess は loanDate から now までの経過で罰金を査定する。
// 猶予期間内なら (zero, false)。丸めは「まる1日」単位の切り捨て。
func (p Policy) Assess(loanDate, now time.Time) (Assessment, bool) {
	elapsedDays := int(now.Sub(loanDate).Hours() / 24)
	overdueDays := elapsedDays - p.GracePeriodDays
	if overdueDays <= 0 {
		return Assessment{}, false
	}

	amount := p.InitialPenalty.Add(p.DailyPenalty.Mul(decimal.NewFromInt(int64(overdueDays))))
	return Assessment{
		OverdueDays: overdueDays,
		Amount:      amount,
		Description: fmt.Sprintf("返却期限超過による罰金（超過%d日）", overdueDays),
	}, true
}
