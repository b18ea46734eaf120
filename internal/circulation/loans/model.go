package loans

import (
	"database/sql"
	"time"
)

// Loan は loans テーブルの1行を表す
type Loan struct {
	ID         int64
	LoanULID   string
	UserID     int64
	BookID     int64
	LoanDate   time.Time
	ReturnDate sql.NullTime
	Returned   bool
}

func (l *Loan) toDTO() LoanResponse {
	resp := LoanResponse{
		ID:       l.ID,
		LoanULID: l.LoanULID,
		UserID:   l.UserID,
		BookID:   l.BookID,
		LoanDate: l.LoanDate,
		Returned: l.Returned,
	}
	if l.ReturnDate.Valid {
		v := l.ReturnDate.Time
		resp.ReturnDate = &v
	}
	return resp
}
