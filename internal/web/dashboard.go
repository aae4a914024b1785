package web

import (
	"log/slog"
	"net/http"

	"github.com/copenny/penny-web/internal/session"
	"github.com/copenny/penny-web/internal/view"
)

// fetchSummaryView loads and renders the dashboard summary. A failed fetch
// renders the no-data placeholders; refreshes fully replace prior state.
func (h *Handler) fetchSummaryView(r *http.Request, userID string) view.SummaryView {
	summary, err := h.backend.Summary(r.Context(), userID)
	if err != nil {
		slog.Debug("summary fetch failed", "error", err, "user_id", userID)
		return view.BuildSummary(nil)
	}
	return view.BuildSummary(summary)
}

// fetchAlertListView loads and renders the alert history. A failed fetch
// renders the empty state.
func (h *Handler) fetchAlertListView(r *http.Request, userID string) view.AlertListView {
	alerts, err := h.backend.AlertHistory(r.Context(), userID)
	if err != nil {
		slog.Debug("alert history fetch failed", "error", err, "user_id", userID)
		return view.BuildAlertList(nil)
	}
	return view.BuildAlertList(alerts)
}

// Summary returns the rendered dashboard summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	summary, err := h.backend.Summary(r.Context(), sess.UserID)
	if err != nil {
		h.flowError(w, err)
		return
	}
	JSON(w, http.StatusOK, view.BuildSummary(summary))
}

// Alerts returns the rendered alert history.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	alerts, err := h.backend.AlertHistory(r.Context(), sess.UserID)
	if err != nil {
		h.flowError(w, err)
		return
	}
	JSON(w, http.StatusOK, view.BuildAlertList(alerts))
}

// ClearAlerts deletes the alert history after explicit confirmation, then
// re-fetches the list rather than assuming the clear succeeded.
func (h *Handler) ClearAlerts(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	if !confirmed(r) {
		Error(w, http.StatusBadRequest, "Clearing alerts requires confirmation.")
		return
	}

	if err := h.backend.ClearAlerts(r.Context(), sess.UserID); err != nil {
		h.flowError(w, err)
		return
	}

	alerts := h.fetchAlertListView(r, sess.UserID)
	JSON(w, http.StatusOK, alerts)
}

type subscriptionResponse struct {
	Tier       string          `json:"tier"`
	BadgeLabel string          `json:"badge_label"`
	BadgeColor view.StyleToken `json:"badge_color"`
}

// Subscription refreshes the subscription badge.
func (h *Handler) Subscription(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	tier := h.refreshTier(r.Context(), sess)
	label, token := view.TierBadge(tier)
	JSON(w, http.StatusOK, subscriptionResponse{Tier: tier, BadgeLabel: label, BadgeColor: token})
}

type themeResponse struct {
	DarkTheme bool `json:"dark_theme"`
}

// ToggleTheme flips the persisted theme preference. Toggling twice restores
// the original state.
func (h *Handler) ToggleTheme(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	next := !sess.DarkTheme
	if err := h.repo.SetDarkTheme(r.Context(), sess.SessionID, next); err != nil {
		slog.Error("failed to persist theme", "error", err, "session_id", sess.SessionID)
		Error(w, http.StatusInternalServerError, "failed to save theme preference")
		return
	}
	sess.DarkTheme = next
	JSON(w, http.StatusOK, themeResponse{DarkTheme: next})
}
