// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// IsSQLiteConflictError reports whether the error is a SQLITE_BUSY or
// "database is locked" error. Both are transient concurrency errors that
// warrant a retry.
func IsSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// RetrySQLite runs op, retrying with exponential backoff when it fails with
// a SQLite conflict error. Non-conflict errors are returned immediately.
func RetrySQLite(ctx context.Context, maxRetries int, baseDelay time.Duration, op func() error) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = op()
		if err == nil {
			return nil
		}
		if !IsSQLiteConflictError(err) || i == maxRetries-1 {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		delay := baseDelay * time.Duration(1<<i) // exponential backoff: base, 2x, 4x
		slog.Debug("SQLite busy, retrying", "attempt", i+1, "delay", delay)
		time.Sleep(delay)
	}
	return err
}
