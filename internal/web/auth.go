package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/copenny/penny-web/internal/session"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type authResponse struct {
	Success bool   `json:"success"`
	Next    string `json:"next"`
	Name    string `json:"name,omitempty"`
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}

func validateCredentials(req credentialsRequest, requireName bool) string {
	if !strings.Contains(req.Email, "@") {
		return "Please enter a valid email address."
	}
	if strings.TrimSpace(req.Password) == "" {
		return "Password cannot be empty."
	}
	if requireName && strings.TrimSpace(req.Name) == "" {
		return "Name cannot be empty."
	}
	return ""
}

// Login authenticates against the backend and persists the session identity.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateCredentials(req, false); msg != "" {
		Error(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.backend.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.flowError(w, err)
		return
	}

	if err := h.persistIdentity(r, result.UserID, result.Name, req.Email); err != nil {
		slog.Error("failed to persist login session", "error", err)
		Error(w, http.StatusInternalServerError, "failed to save session")
		return
	}

	JSON(w, http.StatusOK, authResponse{Success: true, Next: "/dashboard", Name: result.Name})
}

// Register creates an account and directs the user to plan selection.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateCredentials(req, true); msg != "" {
		Error(w, http.StatusBadRequest, msg)
		return
	}

	result, err := h.backend.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.flowError(w, err)
		return
	}

	name := result.Name
	if name == "" {
		name = req.Name
	}
	if err := h.persistIdentity(r, result.UserID, name, req.Email); err != nil {
		slog.Error("failed to persist registration session", "error", err)
		Error(w, http.StatusInternalServerError, "failed to save session")
		return
	}

	JSON(w, http.StatusOK, authResponse{Success: true, Next: "plans", Name: name})
}

func (h *Handler) persistIdentity(r *http.Request, userID, name, email string) error {
	sess := session.FromContext(r.Context())
	sess.Authenticated = true
	sess.UserID = userID
	sess.UserName = name
	sess.UserEmail = email
	sess.LastSeenAt = time.Now()
	return h.repo.UpsertSession(r.Context(), sess)
}

// Logout clears the authentication flag and identity fields, drops the chat
// transcript and sends the browser back to the landing page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		JSON(w, http.StatusOK, authResponse{Success: true, Next: "/"})
		return
	}

	if err := h.repo.ClearAuth(r.Context(), sess.SessionID); err != nil {
		slog.Error("failed to clear session auth", "error", err, "session_id", sess.SessionID)
		Error(w, http.StatusInternalServerError, "failed to log out")
		return
	}
	h.transcripts.Clear(sess.SessionID)

	JSON(w, http.StatusOK, authResponse{Success: true, Next: "/"})
}

type planRequest struct {
	Tier string `json:"tier"`
}

// SelectPlan subscribes the user to the chosen tier and persists it.
func (h *Handler) SelectPlan(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	var req planRequest
	if err := decodeJSON(r, &req); err != nil || req.Tier == "" {
		Error(w, http.StatusBadRequest, "Please choose a plan to continue.")
		return
	}

	if err := h.backend.SelectPlan(r.Context(), sess.UserID, req.Tier); err != nil {
		h.flowError(w, err)
		return
	}

	if err := h.repo.SetTier(r.Context(), sess.SessionID, req.Tier); err != nil {
		slog.Warn("failed to persist selected tier", "error", err, "session_id", sess.SessionID)
	}

	JSON(w, http.StatusOK, authResponse{Success: true, Next: "/dashboard"})
}
