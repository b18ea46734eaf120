package accrual

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/db"
)

func testPolicy() Policy {
	return Policy{
		GracePeriodDays: 7,
		InitialPenalty:  decimal.NewFromInt(100),
		DailyPenalty:    decimal.NewFromInt(10),
	}
}

func TestAssess_WithinGracePeriod_NoFine(t *testing.T) {
	p := testPolicy()
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	for _, daysAgo := range []int{0, 1, 6, 7} {
		loanDate := now.AddDate(0, 0, -daysAgo)
		_, due := p.Assess(loanDate, now)
		assert.False(t, due, "daysAgo=%d", daysAgo)
	}
}

func TestAssess_PastGracePeriod_ExactAmount(t *testing.T) {
	p := testPolicy()
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		daysAgo     int
		wantOverdue int
		wantAmount  string
	}{
		{8, 1, "110"},
		{10, 3, "130"},
		{12, 5, "150"},
		{37, 30, "400"},
	}
	for _, c := range cases {
		a, due := p.Assess(now.AddDate(0, 0, -c.daysAgo), now)
		require.True(t, due, "daysAgo=%d", c.daysAgo)
		assert.Equal(t, c.wantOverdue, a.OverdueDays)
		assert.True(t, a.Amount.Equal(decimal.RequireFromString(c.wantAmount)),
			"daysAgo=%d: got %s want %s", c.daysAgo, a.Amount, c.wantAmount)
		assert.Contains(t, a.Description, fmt.Sprintf("%d日", c.wantOverdue))
	}
}

func TestAssess_PartialDaysTruncated(t *testing.T) {
	p := testPolicy()
	loanDate := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	// 8日 - 1時間 経過 → まる7日 → 猶予ちょうどで罰金なし
	now := loanDate.Add(8*24*time.Hour - time.Hour)
	_, due := p.Assess(loanDate, now)
	assert.False(t, due)

	// ちょうど8日 → 超過1日
	now = loanDate.Add(8 * 24 * time.Hour)
	a, due := p.Assess(loanDate, now)
	require.True(t, due)
	assert.Equal(t, 1, a.OverdueDays)
}

func TestAssess_DecimalPenalties_NoRoundingDrift(t *testing.T) {
	p := Policy{
		GracePeriodDays: 7,
		InitialPenalty:  decimal.RequireFromString("99.99"),
		DailyPenalty:    decimal.RequireFromString("0.10"),
	}
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	a, due := p.Assess(now.AddDate(0, 0, -10), now)
	require.True(t, due)
	// 99.99 + 3*0.10 = 100.29 ちょうど
	assert.True(t, a.Amount.Equal(decimal.RequireFromString("100.29")), "got %s", a.Amount)
}

func TestPolicyFromConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := PolicyFromConfig(db.AccrualConfig{})
		require.NoError(t, err)
		assert.Equal(t, 7, p.GracePeriodDays)
		assert.True(t, p.InitialPenalty.Equal(decimal.NewFromInt(100)))
		assert.True(t, p.DailyPenalty.Equal(decimal.NewFromInt(10)))
	})

	t.Run("overrides", func(t *testing.T) {
		p, err := PolicyFromConfig(db.AccrualConfig{
			GracePeriodDays: 14,
			InitialPenalty:  "50.50",
			DailyPenalty:    "2.25",
		})
		require.NoError(t, err)
		assert.Equal(t, 14, p.GracePeriodDays)
		assert.True(t, p.InitialPenalty.Equal(decimal.RequireFromString("50.50")))
		assert.True(t, p.DailyPenalty.Equal(decimal.RequireFromString("2.25")))
	})

	t.Run("rejects garbage and negatives", func(t *testing.T) {
		_, err := PolicyFromConfig(db.AccrualConfig{InitialPenalty: "abc"})
		assert.Error(t, err)

		_, err = PolicyFromConfig(db.AccrualConfig{DailyPenalty: "-1"})
		assert.Error(t, err)
	})
}
