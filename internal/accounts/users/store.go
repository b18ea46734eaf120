package users

import (
	"context"
	"database/sql"
	"errors"
)

type UserStore interface {
	Insert(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	Update(ctx context.Context, u *User) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	List(ctx context.Context, limit, offset int) ([]User, error)
	RoleExists(ctx context.Context, roleID int64) (bool, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

var _ UserStore = (*Store)(nil)

const userColumns = `id, username, password, email, role_id, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Email, &u.RoleID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) Insert(ctx context.Context, u *User) error {
	const query = `
	INSERT INTO users (username, password, email, role_id, created_at)
	VALUES (?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query, u.Username, u.Password, u.Email, u.RoleID, u.CreatedAt)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	u.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) Update(ctx context.Context, u *User) (int64, error) {
	const query = `
	UPDATE users
	SET username = ?, password = ?, email = ?, role_id = ?
	WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, u.Username, u.Password, u.Email, u.RoleID, u.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	const query = `DELETE FROM users WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM roles WHERE id = ?`, roleID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
