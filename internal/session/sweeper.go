package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/copenny/penny-web/internal/store"
)

const sweepInterval = 5 * time.Minute

// CleanupCallback is called for each session removed by the sweeper, so
// transient per-session state (chat transcripts) can be dropped with it.
type CleanupCallback func(sessionID string)

// StartSweeper runs a background goroutine that periodically removes
// sessions idle for longer than ttl.
func StartSweeper(ctx context.Context, repo store.Repository, ttl time.Duration, onCleanup CleanupCallback) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepExpired(ctx, repo, ttl, onCleanup)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepExpired(ctx context.Context, repo store.Repository, ttl time.Duration, onCleanup CleanupCallback) {
	expired, err := repo.GetExpiredSessions(ctx, ttl)
	if err != nil {
		slog.Error("Session sweeper failed to list expired sessions", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	deleted, err := repo.DeleteSessions(ctx, expired)
	if err != nil {
		slog.Error("Session sweeper failed to delete sessions", "error", err, "count", len(expired))
		return
	}

	if onCleanup != nil {
		for _, id := range expired {
			onCleanup(id)
		}
	}

	slog.Info("Session sweeper cleanup completed", "deleted", deleted)
}
