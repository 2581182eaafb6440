package driven

import (
	"github.com/askdoc/askdoc/internal/core/domain"
)

// ConversationMemory stores per-session question/answer history.
// Appends on the same session ID are serialized in arrival order;
// different sessions are fully independent.
type ConversationMemory interface {
	// Append records a turn for the session, creating the session lazily.
	Append(sessionID string, turn domain.Turn)

	// History returns the most recent maxTurns turns, oldest first.
	// An unknown session yields an empty history, not an error.
	History(sessionID string, maxTurns int) []domain.Turn

	// Reset clears a session's history without affecting other sessions.
	Reset(sessionID string)

	// Len reports the number of retained sessions.
	Len() int
}
