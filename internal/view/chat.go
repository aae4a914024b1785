package view

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/copenny/penny-web/internal/domain"
)

const (
	// BotFallbackMessage is used when the advisor reply has no usable answer.
	BotFallbackMessage = "I'm not sure how to respond to that. Try asking about your spending, or upload more transaction data."
	// LimitSuffix decorates answers sent after the tier's chat quota ran out.
	LimitSuffix = " 🚀"
	// chatStatusLimitReached mirrors the backend's quota-exhausted status.
	chatStatusLimitReached = "limit_reached"
)

// BotReply builds the bot transcript entry for an advisor response.
// Branches: limit_reached answers get the decorative suffix, normal answers
// carry any image visualizations, and everything else falls back to the
// generic message.
func BotReply(status, answer string, visualizations map[string]string) domain.ChatMessage {
	msg := domain.ChatMessage{Sender: domain.SenderBot, SentAt: time.Now()}

	switch {
	case status == chatStatusLimitReached && answer != "":
		msg.Text = answer + LimitSuffix
	case answer != "":
		msg.Text = answer
		msg.Visualizations = FilterImages(visualizations)
	default:
		msg.Text = BotFallbackMessage
	}
	return msg
}

// BotError builds the bot transcript entry for a transport failure. The
// error text is surfaced rather than dropped.
func BotError(err error) domain.ChatMessage {
	return domain.ChatMessage{
		Sender: domain.SenderBot,
		Text:   "I couldn't reach the advisor service: " + err.Error(),
		SentAt: time.Now(),
	}
}

// FilterImages keeps only visualization values that are renderable image
// data and normalizes them to data URIs. Returns nil when nothing survives.
func FilterImages(visualizations map[string]string) map[string]string {
	var out map[string]string
	for name, value := range visualizations {
		uri, ok := ImageDataURI(value)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[name] = uri
	}
	return out
}

// ImageDataURI normalizes a visualization value to a data URI. Accepts
// either a ready-made image data URI or a bare base64 payload; anything
// else is rejected.
func ImageDataURI(value string) (string, bool) {
	if strings.HasPrefix(value, "data:image/") {
		return value, true
	}
	if value == "" {
		return "", false
	}
	if _, err := base64.StdEncoding.DecodeString(value); err != nil {
		return "", false
	}
	return "data:image/png;base64," + value, true
}

// ChatMessageView is a rendered transcript entry.
type ChatMessageView struct {
	Sender         string            `json:"sender"`
	Text           string            `json:"text"`
	Visualizations map[string]string `json:"visualizations,omitempty"`
}

// BuildTranscript converts transcript messages into their rendered form.
func BuildTranscript(messages []domain.ChatMessage) []ChatMessageView {
	views := make([]ChatMessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, ChatMessageView{
			Sender:         string(m.Sender),
			Text:           m.Text,
			Visualizations: m.Visualizations,
		})
	}
	return views
}
