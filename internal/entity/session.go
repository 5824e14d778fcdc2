package entity

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found or expired")

// SessionRepositoryInterface resolves an auth-provider session token to its user.
type SessionRepositoryInterface interface {
	FindUserID(ctx context.Context, token string, now time.Time) (string, error)
}
