package auth

import (
	"fmt"
	"time"

	"github.com/ivankudzin/crush/internal/domain/apperr"
)

var (
	ErrInvalidInput       = fmt.Errorf("invalid input: %w", apperr.ErrValidation)
	ErrEmailTaken         = fmt.Errorf("user already exists: %w", apperr.ErrValidation)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", apperr.ErrUnauthenticated)
	ErrMissingToken       = fmt.Errorf("missing bearer token: %w", apperr.ErrUnauthenticated)
	ErrUnauthorized       = fmt.Errorf("invalid token: %w", apperr.ErrUnauthenticated)
	ErrTokenExpired       = fmt.Errorf("token expired: %w", apperr.ErrUnauthenticated)
	ErrAccountNotFound    = fmt.Errorf("user not found: %w", apperr.ErrNotFound)
)

type AccessClaims struct {
	AccountID string
	Email     string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthResult struct {
	AccessToken   string
	AccessExpires time.Time
	AccountID     string
	Email         string
	Name          string
}
