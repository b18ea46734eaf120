package reservations

import "time"

// Reservation は book_reservations テーブルの1行を表す
type Reservation struct {
	ID              int64
	UserID          int64
	BookID          int64
	ReservationDate time.Time
	Active          bool
}

func (r *Reservation) toDTO() ReservationResponse {
	return ReservationResponse{
		ID:              r.ID,
		UserID:          r.UserID,
		BookID:          r.BookID,
		ReservationDate: r.ReservationDate,
		Active:          r.Active,
	}
}
