package roles

import (
	"context"
	"database/sql"
	"errors"
)

type RoleStore interface {
	Insert(ctx context.Context, r *Role) error
	GetByID(ctx context.Context, id int64) (*Role, error)
	Update(ctx context.Context, r *Role) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	List(ctx context.Context) ([]Role, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

var _ RoleStore = (*Store)(nil)

func (s *Store) Insert(ctx context.Context, r *Role) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO roles (name) VALUES (?)`, r.Name)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	r.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Role, error) {
	var r Role
	err := s.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE id = ?`, id).
		Scan(&r.ID, &r.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) Update(ctx context.Context, r *Role) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE roles SET name = ? WHERE id = ?`, r.Name, r.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
