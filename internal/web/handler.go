// Package web provides the HTTP surface of the Penny client layer: the
// landing and dashboard pages plus the /api flow endpoints they call.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/copenny/penny-web/internal/backend"
	"github.com/copenny/penny-web/internal/chat"
	"github.com/copenny/penny-web/internal/config"
	"github.com/copenny/penny-web/internal/domain"
	"github.com/copenny/penny-web/internal/session"
	"github.com/copenny/penny-web/internal/store"
	"github.com/go-chi/chi/v5"
)

// Backend is the slice of the finance backend this layer consumes. It is an
// interface so handler tests can substitute a recording fake.
type Backend interface {
	Login(ctx context.Context, email, password string) (*backend.AuthResult, error)
	Register(ctx context.Context, email, password, name string) (*backend.AuthResult, error)
	SelectPlan(ctx context.Context, userID, tier string) error
	SubscriptionStatus(ctx context.Context, userID string) (string, error)
	Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResult, error)
	PersonalizationStatus(ctx context.Context, userID string) (*domain.PersonalizationStatus, error)
	Upload(ctx context.Context, userID, filename string, file io.Reader, overwrite bool) (*backend.UploadResult, error)
	Train(ctx context.Context, userID string) (*backend.TrainResult, error)
	DeleteData(ctx context.Context, userID string) error
	AlertHistory(ctx context.Context, userID string) ([]domain.Alert, error)
	ClearAlerts(ctx context.Context, userID string) error
	Summary(ctx context.Context, userID string) (*domain.Summary, error)
}

// Handler wires the page and API handlers to their dependencies.
type Handler struct {
	repo        store.Repository
	backend     Backend
	transcripts *chat.TranscriptManager
	templates   *template.Template
	backendPort string
}

// NewHandler creates a new Handler.
func NewHandler(repo store.Repository, be Backend, transcripts *chat.TranscriptManager, templates *template.Template, cfg *config.Config) *Handler {
	port := "8080"
	if cfg != nil {
		port = cfg.BackendPort()
	}
	return &Handler{
		repo:        repo,
		backend:     be,
		transcripts: transcripts,
		templates:   templates,
		backendPort: port,
	}
}

// RegisterRoutes registers the page and API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Landing)

	r.Group(func(r chi.Router) {
		r.Use(session.RequireAuth)
		r.Get("/dashboard", h.Dashboard)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.Login)
		r.Post("/auth/register", h.Register)
		r.Post("/auth/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(session.RequireAuth)
			r.Post("/plans/select", h.SelectPlan)
			r.Get("/subscription", h.Subscription)
			r.Post("/theme/toggle", h.ToggleTheme)
			r.Post("/chat", h.Chat)
			r.Get("/summary", h.Summary)
			r.Get("/alerts", h.Alerts)
			r.Delete("/alerts", h.ClearAlerts)
			r.Get("/personalization/status", h.Status)
			r.Post("/personalization/upload", h.Upload)
			r.Post("/personalization/train", h.Train)
			r.Delete("/personalization/data", h.DeleteData)
		})
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// flowError renders a flow failure in the two-class model: backend-reported
// failures surface their message verbatim with a 400; anything else is a
// transport problem and gets the generic connectivity message.
func (h *Handler) flowError(w http.ResponseWriter, err error) {
	if apiErr, ok := backend.AsAPIError(err); ok {
		Error(w, http.StatusBadRequest, apiErr.Error())
		return
	}
	Error(w, http.StatusBadGateway, h.connectivityMessage(err))
}

func (h *Handler) connectivityMessage(err error) string {
	return fmt.Sprintf(
		"Could not reach the Penny backend (%v). Make sure the server is running on port %s.",
		err, h.backendPort,
	)
}

// refreshTier fetches the current subscription tier and persists it on the
// session. Best-effort: failures are logged, never surfaced.
func (h *Handler) refreshTier(ctx context.Context, sess *domain.Session) string {
	tier, err := h.backend.SubscriptionStatus(ctx, sess.UserID)
	if err != nil {
		slog.Debug("subscription refresh failed", "error", err, "user_id", sess.UserID)
		return sess.Tier
	}
	if tier != "" && tier != sess.Tier {
		if err := h.repo.SetTier(ctx, sess.SessionID, tier); err != nil {
			slog.Warn("failed to persist refreshed tier", "error", err, "session_id", sess.SessionID)
		}
		sess.Tier = tier
	}
	return sess.Tier
}
