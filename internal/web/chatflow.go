package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/copenny/penny-web/internal/backend"
	"github.com/copenny/penny-web/internal/domain"
	"github.com/copenny/penny-web/internal/session"
	"github.com/copenny/penny-web/internal/view"
)

type chatFlowRequest struct {
	Message string `json:"message"`
}

type chatFlowResponse struct {
	Messages []view.ChatMessageView `json:"messages"`
	Tier     string                 `json:"tier"`
}

// Chat runs one advisor exchange: append the user's message, ask the
// backend, append the reply, then refresh the subscription badge. There is
// no queueing or cancellation; concurrent sends land in completion order.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	var req chatFlowRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		Error(w, http.StatusBadRequest, "Message cannot be empty.")
		return
	}

	userMsg := domain.ChatMessage{Sender: domain.SenderUser, Text: message, SentAt: time.Now()}
	h.transcripts.Append(sess.SessionID, userMsg)

	result, err := h.backend.Chat(r.Context(), backend.ChatRequest{
		SessionID: "local",
		Message:   message,
		Context:   []string{},
		UserID:    sess.UserID,
	})

	var botMsg domain.ChatMessage
	switch {
	case err == nil:
		botMsg = view.BotReply(string(result.Status), result.Answer, result.Visualizations)
	default:
		if _, isAPIError := backend.AsAPIError(err); isAPIError {
			// Backend-reported chat failures fall back to the generic reply.
			botMsg = view.BotReply("", "", nil)
		} else {
			botMsg = view.BotError(err)
		}
	}
	h.transcripts.Append(sess.SessionID, botMsg)

	// Every exchange may have consumed quota; refresh the badge.
	tier := h.refreshTier(r.Context(), sess)

	JSON(w, http.StatusOK, chatFlowResponse{
		Messages: view.BuildTranscript([]domain.ChatMessage{userMsg, botMsg}),
		Tier:     tier,
	})
}
