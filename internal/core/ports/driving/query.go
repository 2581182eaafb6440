package driving

import (
	"context"

	"github.com/askdoc/askdoc/internal/core/domain"
)

// QueryService answers natural-language questions against indexed
// documents, maintaining per-session conversation history.
type QueryService interface {
	// Ask retrieves relevant chunks for the question, feeds them with the
	// session history to the generator, and records the turn. An empty
	// retrieval is not an error: the answer states that no relevant
	// context was found.
	Ask(ctx context.Context, documentID, sessionID, question string) (*domain.Answer, error)

	// Retrieve runs hybrid retrieval only, without synthesis or history.
	Retrieve(ctx context.Context, question string, opts domain.QueryOptions) ([]domain.RetrievedChunk, error)

	// ResetSession clears a session's conversation history.
	ResetSession(sessionID string)
}
