package domain

import "time"

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is a transient advisor-chat entry. Messages live only in the
// in-memory transcript for the current session and are never persisted.
type ChatMessage struct {
	Sender         Sender            `json:"sender"`
	Text           string            `json:"text"`
	Visualizations map[string]string `json:"visualizations,omitempty"`
	SentAt         time.Time         `json:"sent_at"`
}
