package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ログイン認証に必要な分だけのユーザービュー
type Credential struct {
	UserID       int64
	Username     string
	PasswordHash string
	RoleID       int64
	RoleName     string
}

type CredentialStore interface {
	GetByUsername(ctx context.Context, username string) (*Credential, error)
	InvalidateToken(ctx context.Context, token string, at time.Time) error
	IsInvalidated(ctx context.Context, token string) (bool, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) GetByUsername(ctx context.Context, username string) (*Credential, error) {
	const q = `
SELECT u.id, u.username, u.password, u.role_id, r.name
FROM users u
JOIN roles r ON r.id = u.role_id
WHERE u.username = ?
LIMIT 1`
	var cr Credential
	err := s.db.QueryRowContext(ctx, q, username).Scan(
		&cr.UserID, &cr.Username, &cr.PasswordHash, &cr.RoleID, &cr.RoleName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

func (s *Store) InvalidateToken(ctx context.Context, token string, at time.Time) error {
	const q = `INSERT IGNORE INTO invalidated_tokens (token, invalidated_at) VALUES (?, ?)`
	_, err := s.db.ExecContext(ctx, q, token, at)
	return err
}

func (s *Store) IsInvalidated(ctx context.Context, token string) (bool, error) {
	const q = `SELECT 1 FROM invalidated_tokens WHERE token = ? LIMIT 1`
	var one int
	err := s.db.QueryRowContext(ctx, q, token).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
