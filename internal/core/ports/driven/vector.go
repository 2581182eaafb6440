package driven

import "context"

// VectorIndex provides semantic similarity search over chunk embeddings.
// The baseline implementation is a brute-force linear scan; the interface
// deliberately says nothing about the internal structure so an approximate
// nearest-neighbour index (e.g. pgvector's ivfflat) can be substituted.
type VectorIndex interface {
	// Add inserts an embedding for the given chunk. The documentID is
	// recorded so searches can be scoped without a separate lookup.
	// Returns domain.ErrDimensionMismatch if the embedding's dimension
	// disagrees with the index.
	Add(ctx context.Context, chunkID, documentID string, embedding []float32) error

	// Remove deletes a chunk's embedding from the index.
	Remove(ctx context.Context, chunkID string) error

	// Search finds the k most similar chunks by cosine similarity.
	// Ties break by insertion order, earliest first. A non-empty
	// documentID restricts candidates to that document.
	Search(ctx context.Context, query []float32, k int, documentID string) ([]VectorHit, error)

	// Len reports the number of stored vectors.
	Len() int

	// Close releases resources.
	Close() error
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Similarity is the cosine similarity in [-1,1].
	Similarity float64
}
