package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/lead-crm/internal/entity"
)

// SessionRepository reads the session table written by the auth provider.
type SessionRepository struct {
	DB *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) FindUserID(ctx context.Context, token string, now time.Time) (string, error) {
	var userID string
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id FROM session WHERE token = $1 AND expires_at > $2`,
		token, now.UTC(),
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", entity.ErrSessionNotFound
		}
		return "", fmt.Errorf("lookup session: %w", err)
	}
	return userID, nil
}
