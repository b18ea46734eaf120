package histories

import "time"

type CreateHistoryRequest struct {
	UserID     int64      `json:"user_id" binding:"required"`
	BookID     int64      `json:"book_id" binding:"required"`
	LoanDate   time.Time  `json:"loan_date" binding:"required"`
	ReturnDate *time.Time `json:"return_date"`
	Returned   bool       `json:"returned"`
}

type HistoryResponse struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	LoanDate   time.Time  `json:"loan_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`
	Returned   bool       `json:"returned"`
}
