package books

import (
	"context"
	"database/sql"
	"errors"
)

type BookStore interface {
	Insert(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id int64) (*Book, error)
	Update(ctx context.Context, b *Book) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	List(ctx context.Context, limit, offset int) ([]Book, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

var _ BookStore = (*Store)(nil)

const bookColumns = `id, title, author, category_id, isbn, copies_available, created_at, updated_at`

func scanBook(row interface{ Scan(dest ...any) error }) (*Book, error) {
	var b Book
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.CategoryID, &b.ISBN,
		&b.CopiesAvailable, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const query = `
	INSERT INTO books (title, author, category_id, isbn, copies_available, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		b.Title, b.Author, b.CategoryID, b.ISBN, b.CopiesAvailable, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	b.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ?`
	b, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Update は全カラムを書き戻す。部分更新の合成は service 側で済ませてある
func (s *Store) Update(ctx context.Context, b *Book) (int64, error) {
	const query = `
	UPDATE books
	SET title = ?, author = ?, category_id = ?, isbn = ?, copies_available = ?, updated_at = ?
	WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query,
		b.Title, b.Author, b.CategoryID, b.ISBN, b.CopiesAvailable, b.UpdatedAt, b.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	const query = `DELETE FROM books WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY id LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
