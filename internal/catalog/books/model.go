package books

import "time"

// Book は books テーブルの1行を表す
type Book struct {
	ID              int64
	Title           string
	Author          string
	CategoryID      int64
	ISBN            string
	CopiesAvailable int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (b *Book) toDTO() BookResponse {
	return BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		CategoryID:      b.CategoryID,
		ISBN:            b.ISBN,
		CopiesAvailable: b.CopiesAvailable,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
