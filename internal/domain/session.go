// Package domain contains core domain types for the Penny client layer.
package domain

import (
	"time"
)

// Session is the persisted per-browser client state. It carries the same
// keys a browser would keep in local storage: the authentication flag, the
// user's identity fields, the selected subscription tier and the theme
// preference.
type Session struct {
	SessionID     string    `json:"session_id"`
	Authenticated bool      `json:"authenticated"`
	UserID        string    `json:"user_id,omitempty"`
	UserName      string    `json:"user_name,omitempty"`
	UserEmail     string    `json:"user_email,omitempty"`
	Tier          string    `json:"tier,omitempty"`
	DarkTheme     bool      `json:"dark_theme"`
	LastSeenAt    time.Time `json:"last_seen_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ExpiresIn returns the time until the session is swept for inactivity.
// Returns 0 if the session has already expired.
func (s *Session) ExpiresIn(ttl time.Duration) time.Duration {
	remaining := time.Until(s.LastSeenAt.Add(ttl))
	if remaining < 0 {
		return 0
	}
	return remaining
}
