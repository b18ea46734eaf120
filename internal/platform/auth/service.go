package auth

import (
	"context"
	"database/sql"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"LIBRA-backend/internal/platform/apierr"
)

type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type Service struct {
	store    CredentialStore
	secret   []byte
	tokenTTL time.Duration
	clock    Clock
}

func NewService(db *sql.DB, secret []byte, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		store:    NewStore(db),
		secret:   secret,
		tokenTTL: ttl,
		clock:    realClock{},
	}
}

type LoginResult struct {
	Token  string
	UserID int64
	RoleID int64
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	cr, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if cr == nil {
		// ユーザー有無を区別させない
		return nil, apierr.Unauth("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cr.PasswordHash), []byte(password)); err != nil {
		return nil, apierr.Unauth("invalid credentials")
	}

	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  cr.Username,
		"uid":  cr.UserID,
		"role": cr.RoleName,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tokenString, UserID: cr.UserID, RoleID: cr.RoleID}, nil
}

// Logout はトークンをブラックリストに積む。期限切れ後の掃除はDB側の運用に任せる。
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.store.InvalidateToken(ctx, token, s.clock.Now())
}

func (s *Service) Blacklist() TokenChecker { return s.store }
