// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/copenny/penny-web/internal/domain"
)

// Repository defines the interface for persisting per-browser session state.
type Repository interface {
	// GetSession retrieves a session by its ID. Returns (nil, nil) when the
	// session does not exist.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// UpsertSession creates or updates a session record.
	UpsertSession(ctx context.Context, session *domain.Session) error

	// ClearAuth resets the authentication flag and identity fields of a
	// session, keeping UI preferences (theme) intact.
	ClearAuth(ctx context.Context, sessionID string) error

	// SetDarkTheme persists the theme preference for a session.
	SetDarkTheme(ctx context.Context, sessionID string, dark bool) error

	// SetTier persists the selected subscription tier for a session.
	SetTier(ctx context.Context, sessionID string, tier string) error

	// TouchSession updates the last_seen_at timestamp for a session.
	TouchSession(ctx context.Context, sessionID string, lastSeen time.Time) error

	// GetExpiredSessions returns the IDs of sessions idle for longer than ttl.
	GetExpiredSessions(ctx context.Context, ttl time.Duration) ([]string, error)

	// DeleteSessions removes the given sessions.
	DeleteSessions(ctx context.Context, sessionIDs []string) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
