package reservations

import "time"

type CreateReservationRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
	BookID int64 `json:"book_id" binding:"required"`
}

type ReservationResponse struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	BookID          int64     `json:"book_id"`
	ReservationDate time.Time `json:"reservation_date"`
	Active          bool      `json:"active"`
}
