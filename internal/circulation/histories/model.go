package histories

import (
	"database/sql"
	"time"
)

// History は loan_history テーブルの1行。貸出本体とは独立した監査記録
type History struct {
	ID         int64
	UserID     int64
	BookID     int64
	LoanDate   time.Time
	ReturnDate sql.NullTime
	Returned   bool
}

func (h *History) toDTO() HistoryResponse {
	resp := HistoryResponse{
		ID:       h.ID,
		UserID:   h.UserID,
		BookID:   h.BookID,
		LoanDate: h.LoanDate,
		Returned: h.Returned,
	}
	if h.ReturnDate.Valid {
		v := h.ReturnDate.Time
		resp.ReturnDate = &v
	}
	return resp
}
