// Package chat keeps per-session advisor transcripts in memory.
//
// Transcripts are deliberately transient: they are rendered once per
// dashboard view, dropped at logout and swept together with their session.
package chat

import (
	"log/slog"
	"sync"

	"github.com/copenny/penny-web/internal/domain"
)

// TranscriptManager tracks the chat transcript for each active session.
type TranscriptManager struct {
	mu          sync.RWMutex
	transcripts map[string][]domain.ChatMessage
}

// NewTranscriptManager creates a new transcript manager.
func NewTranscriptManager() *TranscriptManager {
	return &TranscriptManager{
		transcripts: make(map[string][]domain.ChatMessage),
	}
}

// Append adds a message to a session's transcript. Concurrent sends append
// in completion order; no ordering beyond that is guaranteed.
func (m *TranscriptManager) Append(sessionID string, msg domain.ChatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts[sessionID] = append(m.transcripts[sessionID], msg)
}

// Messages returns a copy of the transcript for a session.
func (m *TranscriptManager) Messages(sessionID string) []domain.ChatMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.transcripts[sessionID]
	if len(msgs) == 0 {
		return nil
	}
	out := make([]domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// Len returns the number of messages in a session's transcript.
func (m *TranscriptManager) Len(sessionID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transcripts[sessionID])
}

// Clear drops the transcript for a session.
func (m *TranscriptManager) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transcripts[sessionID]; ok {
		delete(m.transcripts, sessionID)
		slog.Debug("Chat transcript cleared", "session_id", sessionID)
	}
}
