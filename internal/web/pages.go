package web

import (
	"log/slog"
	"net/http"

	"github.com/copenny/penny-web/internal/session"
	"github.com/copenny/penny-web/internal/view"
)

type landingData struct {
	DarkTheme     bool
	Authenticated bool
}

// Landing renders the landing/auth page. Already-authenticated visitors are
// sent straight to the dashboard.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess != nil && sess.Authenticated {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := landingData{}
	if sess != nil {
		data.DarkTheme = sess.DarkTheme
	}
	h.render(w, "landing.html", data)
}

type tabLink struct {
	Key    view.Tab
	Title  string
	Active bool
}

type dashboardData struct {
	UserName   string
	UserEmail  string
	Tier       string
	BadgeLabel string
	BadgeColor view.StyleToken
	DarkTheme  bool
	ActiveTab  view.Tab
	ActiveTitle string
	Tabs       []tabLink
	Transcript []view.ChatMessageView
}

// Dashboard renders the dashboard shell. The panels load their data through
// the /api endpoints; the guard has already run, so this handler never
// fires a backend fetch for unauthenticated visitors.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	active := view.Tab(r.URL.Query().Get("tab"))
	if active == "" {
		active = view.TabOverview
	}

	tabs := make([]tabLink, 0, len(view.Tabs))
	for _, t := range view.Tabs {
		tabs = append(tabs, tabLink{Key: t, Title: view.TabTitle(t), Active: t == active})
	}

	label, token := view.TierBadge(sess.Tier)
	h.render(w, "dashboard.html", dashboardData{
		UserName:    sess.UserName,
		UserEmail:   sess.UserEmail,
		Tier:        sess.Tier,
		BadgeLabel:  label,
		BadgeColor:  token,
		DarkTheme:   sess.DarkTheme,
		ActiveTab:   active,
		ActiveTitle: view.TabTitle(active),
		Tabs:        tabs,
		Transcript:  view.BuildTranscript(h.transcripts.Messages(sess.SessionID)),
	})
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
