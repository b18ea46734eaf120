package loans

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	BookID int64 `json:"book_id" binding:"required"`
}

type LoanResponse struct {
	ID         int64      `json:"id"`
	LoanULID   string     `json:"loan_ulid"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	LoanDate   time.Time  `json:"loan_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Returned   bool       `json:"returned"`
}

// 延滞料金のプレビュー。台帳には書かない
type LateFeeResponse struct {
	LoanID      int64           `json:"loan_id"`
	OverdueDays int             `json:"overdue_days"`
	LateFee     decimal.Decimal `json:"late_fee"`
	Description string          `json:"description,omitempty"`
}
