package books

import "time"

type CreateBookRequest struct {
	Title           string `json:"title" binding:"required"`
	Author          string `json:"author" binding:"required"`
	CategoryID      int64  `json:"category_id" binding:"required"`
	ISBN            string `json:"isbn" binding:"required"`
	CopiesAvailable *int   `json:"copies_available"`
}

// UpdateBookRequest は部分更新。nil のフィールドは触らない
type UpdateBookRequest struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	CategoryID      *int64  `json:"category_id"`
	ISBN            *string `json:"isbn"`
	CopiesAvailable *int    `json:"copies_available"`
}

type BookResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	CategoryID      int64     `json:"category_id"`
	ISBN            string    `json:"isbn"`
	CopiesAvailable int       `json:"copies_available"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AvailabilityResponse struct {
	BookID          int64 `json:"book_id"`
	CopiesAvailable int   `json:"copies_available"`
	Available       bool  `json:"available"`
}
