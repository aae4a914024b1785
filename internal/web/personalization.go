package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/copenny/penny-web/internal/backend"
	"github.com/copenny/penny-web/internal/session"
	"github.com/copenny/penny-web/internal/view"
)

const maxUploadBytes = 32 << 20

type uploadResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message,omitempty"`
	Error       string             `json:"error,omitempty"`
	ShowUpgrade bool               `json:"show_upgrade,omitempty"`
	Summary     *view.SummaryView  `json:"summary,omitempty"`
	Alerts      *view.AlertListView `json:"alerts,omitempty"`
	Status      *view.StatusView   `json:"status,omitempty"`
	Tier        string             `json:"tier,omitempty"`
}

// Upload forwards a CSV transaction file to the backend. On success it runs
// the unconditional refresh cascade: summary first, then alert history,
// then the best-effort status poll and subscription refresh.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		Error(w, http.StatusBadRequest, "invalid upload form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		Error(w, http.StatusBadRequest, "Please choose a CSV file to upload.")
		return
	}
	defer file.Close()

	overwrite, _ := strconv.ParseBool(r.FormValue("overwrite"))

	result, err := h.backend.Upload(r.Context(), sess.UserID, header.Filename, file, overwrite)
	if err != nil {
		if apiErr, ok := backend.AsAPIError(err); ok {
			JSON(w, http.StatusOK, uploadResponse{
				Error:       apiErr.Error(),
				ShowUpgrade: backend.IsLimitError(err),
			})
			return
		}
		Error(w, http.StatusBadGateway, h.connectivityMessage(err))
		return
	}

	resp := uploadResponse{Success: true, Message: result.Message}

	// Cascade order matters to the UI: summary before alerts.
	summary := h.fetchSummaryView(r, sess.UserID)
	resp.Summary = &summary
	alerts := h.fetchAlertListView(r, sess.UserID)
	resp.Alerts = &alerts

	if status, err := h.backend.PersonalizationStatus(r.Context(), sess.UserID); err == nil {
		sv := view.BuildStatus(status)
		resp.Status = &sv
	} else {
		// Status poll is best-effort by design.
		slog.Debug("status poll failed after upload", "error", err, "user_id", sess.UserID)
	}
	resp.Tier = h.refreshTier(r.Context(), sess)

	JSON(w, http.StatusOK, resp)
}

type trainResponse struct {
	Success  bool              `json:"success"`
	Accuracy string            `json:"accuracy,omitempty"`
	Error    string            `json:"error,omitempty"`
	Summary  *view.SummaryView `json:"summary,omitempty"`
}

// Train triggers a retrain of the user's model and reports its accuracy.
func (h *Handler) Train(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	result, err := h.backend.Train(r.Context(), sess.UserID)
	if err != nil {
		if apiErr, ok := backend.AsAPIError(err); ok {
			JSON(w, http.StatusOK, trainResponse{Error: apiErr.Error()})
			return
		}
		Error(w, http.StatusBadGateway, h.connectivityMessage(err))
		return
	}

	summary := h.fetchSummaryView(r, sess.UserID)
	JSON(w, http.StatusOK, trainResponse{
		Success:  true,
		Accuracy: view.FormatPercent(result.TestAccuracy),
		Summary:  &summary,
	})
}

type deleteResponse struct {
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	Summary *view.SummaryView   `json:"summary,omitempty"`
	Alerts  *view.AlertListView `json:"alerts,omitempty"`
}

// DeleteData removes the user's uploaded data and model. The confirmation
// field is mandatory: without it no backend DELETE is issued.
func (h *Handler) DeleteData(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	if !confirmed(r) {
		Error(w, http.StatusBadRequest, "Deleting your data requires confirmation.")
		return
	}

	if err := h.backend.DeleteData(r.Context(), sess.UserID); err != nil {
		if apiErr, ok := backend.AsAPIError(err); ok {
			JSON(w, http.StatusOK, deleteResponse{Error: apiErr.Error()})
			return
		}
		Error(w, http.StatusBadGateway, h.connectivityMessage(err))
		return
	}

	summary := h.fetchSummaryView(r, sess.UserID)
	alerts := h.fetchAlertListView(r, sess.UserID)
	JSON(w, http.StatusOK, deleteResponse{Success: true, Summary: &summary, Alerts: &alerts})
}

type statusResponse struct {
	OK     bool            `json:"ok"`
	Status view.StatusView `json:"status"`
}

// Status polls the personalization status. Failures are swallowed: the
// response just says the poll produced nothing usable.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	status, err := h.backend.PersonalizationStatus(r.Context(), sess.UserID)
	if err != nil {
		slog.Debug("status poll failed", "error", err, "user_id", sess.UserID)
		JSON(w, http.StatusOK, statusResponse{OK: false})
		return
	}
	JSON(w, http.StatusOK, statusResponse{OK: true, Status: view.BuildStatus(status)})
}

// confirmed reports whether the request carries the explicit confirmation
// marker required for destructive actions.
func confirmed(r *http.Request) bool {
	v := r.URL.Query().Get("confirm")
	if v == "" {
		v = r.FormValue("confirm")
	}
	ok, _ := strconv.ParseBool(v)
	return ok
}
