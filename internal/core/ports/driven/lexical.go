package driven

import (
	"context"

	"github.com/askdoc/askdoc/internal/core/domain"
)

// LexicalIndex provides keyword search over chunks using BM25 ranking.
type LexicalIndex interface {
	// Add indexes a chunk's text. Adding a chunk ID that is already
	// present replaces its previous contribution.
	Add(ctx context.Context, chunk domain.Chunk) error

	// Remove deletes a chunk and fully reverses its contribution to the
	// index's aggregate statistics (document frequency, average length).
	Remove(ctx context.Context, chunkID string) error

	// Search ranks chunks against the query text. An empty query or an
	// empty index yields an empty result, not an error. A non-empty
	// documentID restricts candidates to that document before scoring.
	Search(ctx context.Context, query string, limit int, documentID string) ([]LexicalHit, error)

	// Stats reports the aggregate corpus statistics, used for
	// consistency checks and tests.
	Stats() LexicalStats

	// Close releases resources.
	Close() error
}

// LexicalHit is a keyword search result.
type LexicalHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the BM25 relevance score (unbounded above, >= 0).
	Score float64
}

// LexicalStats are the aggregate statistics maintained by the index.
type LexicalStats struct {
	// ChunkCount is the number of indexed chunks.
	ChunkCount int

	// TermCount is the number of distinct terms.
	TermCount int

	// TotalLength is the sum of all chunk lengths in tokens.
	TotalLength int
}
