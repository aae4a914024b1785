// Package session provides per-browser session primitives: the cookie that
// identifies a browser, the middleware that loads its persisted state, and
// the guard that keeps unauthenticated visitors off the dashboard.
package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/copenny/penny-web/internal/domain"
	"github.com/copenny/penny-web/internal/store"
	"github.com/google/uuid"
)

const (
	// CookieName identifies the browser session cookie.
	CookieName = "penny_session"

	cookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const sessionKey contextKey = iota

// FromContext extracts the session from the request context. Returns nil
// when no session middleware ran.
func FromContext(ctx context.Context) *domain.Session {
	if s, ok := ctx.Value(sessionKey).(*domain.Session); ok {
		return s
	}
	return nil
}

// WithSession returns a context carrying the given session. Exposed for
// handler tests.
func WithSession(ctx context.Context, s *domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func newSessionID() string {
	return "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func isValidSessionID(id string) bool {
	return strings.HasPrefix(id, "sess_") && len(id) == len("sess_")+32
}

func setSessionCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Expires:  time.Now().Add(cookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// Middleware ensures every request carries a persisted session: it reads or
// issues the session cookie, loads (or creates) the session row and injects
// it into the request context.
func Middleware(repo store.Repository, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(CookieName); err == nil && isValidSessionID(c.Value) {
				id = c.Value
			}

			var sess *domain.Session
			if id != "" {
				loaded, err := repo.GetSession(r.Context(), id)
				if err != nil {
					http.Error(w, `{"error":"failed to load session"}`, http.StatusInternalServerError)
					return
				}
				sess = loaded
			}

			if sess == nil {
				now := time.Now()
				sess = &domain.Session{
					SessionID:  newSessionID(),
					LastSeenAt: now,
					CreatedAt:  now,
					UpdatedAt:  now,
				}
				if err := repo.UpsertSession(r.Context(), sess); err != nil {
					http.Error(w, `{"error":"failed to initialize session"}`, http.StatusInternalServerError)
					return
				}
			} else {
				// Refresh activity; failures here are not fatal.
				_ = repo.TouchSession(r.Context(), sess.SessionID, time.Now())
			}

			setSessionCookie(w, sess.SessionID, isDev)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireAuth guards authenticated surfaces. Page requests are redirected to
// the landing page; API requests get a 401 JSON body. The guard runs before
// any handler work, so no backend fetch fires for unauthenticated visitors.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		if sess != nil && sess.Authenticated {
			next.ServeHTTP(w, r)
			return
		}

		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"not authenticated"}`))
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
}
