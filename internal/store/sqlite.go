package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/copenny/penny-web/internal/domain"
	"github.com/copenny/penny-web/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	sessionMu sync.Mutex // Serializes session writes to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		authenticated INTEGER NOT NULL DEFAULT 0,
		user_id TEXT NOT NULL DEFAULT '',
		user_name TEXT NOT NULL DEFAULT '',
		user_email TEXT NOT NULL DEFAULT '',
		tier TEXT NOT NULL DEFAULT '',
		dark_theme INTEGER NOT NULL DEFAULT 0,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSession retrieves a session by its ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := `
		SELECT session_id, authenticated, user_id, user_name, user_email,
		       tier, dark_theme, last_seen_at, created_at, updated_at
		FROM sessions WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, sessionID)

	var sess domain.Session
	var authenticated, darkTheme int
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(
		&sess.SessionID, &authenticated, &sess.UserID, &sess.UserName,
		&sess.UserEmail, &sess.Tier, &darkTheme,
		&lastSeen, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	sess.Authenticated = authenticated != 0
	sess.DarkTheme = darkTheme != 0
	sess.LastSeenAt = time.Unix(lastSeen, 0)
	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.UpdatedAt = time.Unix(updatedAt, 0)

	return &sess, nil
}

// UpsertSession creates or updates a session record.
func (s *SQLiteStore) UpsertSession(ctx context.Context, session *domain.Session) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	query := `
	INSERT INTO sessions (
		session_id, authenticated, user_id, user_name, user_email,
		tier, dark_theme, last_seen_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		authenticated = excluded.authenticated,
		user_id = excluded.user_id,
		user_name = excluded.user_name,
		user_email = excluded.user_email,
		tier = excluded.tier,
		dark_theme = excluded.dark_theme,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	return shared.RetrySQLite(ctx, 3, 50*time.Millisecond, func() error {
		_, err := s.db.ExecContext(ctx, query,
			session.SessionID, boolToInt(session.Authenticated),
			session.UserID, session.UserName, session.UserEmail,
			session.Tier, boolToInt(session.DarkTheme),
			session.LastSeenAt.Unix(), session.CreatedAt.Unix(), time.Now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
		return nil
	})
}

// ClearAuth resets authentication state while keeping UI preferences.
func (s *SQLiteStore) ClearAuth(ctx context.Context, sessionID string) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	query := `
	UPDATE sessions SET
		authenticated = 0, user_id = '', user_name = '', user_email = '',
		tier = '', updated_at = ?
	WHERE session_id = ?`

	return shared.RetrySQLite(ctx, 3, 50*time.Millisecond, func() error {
		_, err := s.db.ExecContext(ctx, query, time.Now().Unix(), sessionID)
		if err != nil {
			return fmt.Errorf("clear session auth: %w", err)
		}
		return nil
	})
}

// SetDarkTheme persists the theme preference for a session.
func (s *SQLiteStore) SetDarkTheme(ctx context.Context, sessionID string, dark bool) error {
	return s.updateField(ctx, sessionID, "dark_theme", boolToInt(dark))
}

// SetTier persists the selected subscription tier for a session.
func (s *SQLiteStore) SetTier(ctx context.Context, sessionID string, tier string) error {
	return s.updateField(ctx, sessionID, "tier", tier)
}

func (s *SQLiteStore) updateField(ctx context.Context, sessionID, column string, value interface{}) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	// column is always a compile-time constant from this file.
	query := `UPDATE sessions SET ` + column + ` = ?, updated_at = ? WHERE session_id = ?`

	return shared.RetrySQLite(ctx, 3, 50*time.Millisecond, func() error {
		res, err := s.db.ExecContext(ctx, query, value, time.Now().Unix(), sessionID)
		if err != nil {
			return fmt.Errorf("update session %s: %w", column, err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("session not found: %s", sessionID)
		}
		return nil
	})
}

// TouchSession updates the last_seen_at timestamp for a session.
func (s *SQLiteStore) TouchSession(ctx context.Context, sessionID string, lastSeen time.Time) error {
	query := `UPDATE sessions SET last_seen_at = ?, updated_at = ? WHERE session_id = ?`
	_, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// GetExpiredSessions returns the IDs of sessions idle for longer than ttl.
func (s *SQLiteStore) GetExpiredSessions(ctx context.Context, ttl time.Duration) ([]string, error) {
	threshold := time.Now().Add(-ttl).Unix()
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM sessions WHERE last_seen_at < ?`, threshold)
	if err != nil {
		return nil, fmt.Errorf("query expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired session row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}
	return ids, nil
}

// DeleteSessions removes the given sessions.
func (s *SQLiteStore) DeleteSessions(ctx context.Context, sessionIDs []string) (int64, error) {
	if len(sessionIDs) == 0 {
		return 0, nil
	}

	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sessionIDs)), ",")
	args := make([]interface{}, len(sessionIDs))
	for i, id := range sessionIDs {
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
