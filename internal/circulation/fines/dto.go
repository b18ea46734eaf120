package fines

import (
	"time"

	"github.com/shopspring/decimal"
)

// 手動登録リクエスト（エンジン生成分は accrual 側が書く）
type CreateFineRequest struct {
	UserID      int64           `json:"user_id" binding:"required"`
	LoanID      int64           `json:"loan_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"required"`
}

type FineResponse struct {
	ID          int64           `json:"id"`
	FineULID    string          `json:"fine_ulid"`
	UserID      int64           `json:"user_id"`
	LoanID      int64           `json:"loan_id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	FineDate    time.Time       `json:"fine_date"`
	Paid        bool            `json:"paid"`
}
