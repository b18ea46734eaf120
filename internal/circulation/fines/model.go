package fines

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fine は fines テーブルの1行を表す
type Fine struct {
	ID          int64
	FineULID    string
	UserID      int64
	LoanID      int64
	Amount      decimal.Decimal
	Description string
	FineDate    time.Time
	Paid        bool
}

func (f *Fine) toDTO() FineResponse {
	return FineResponse{
		ID:          f.ID,
		FineULID:    f.FineULID,
		UserID:      f.UserID,
		LoanID:      f.LoanID,
		Amount:      f.Amount,
		Description: f.Description,
		FineDate:    f.FineDate,
		Paid:        f.Paid,
	}
}
