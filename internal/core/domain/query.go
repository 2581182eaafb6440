package domain

// QueryOptions configures a retrieval query.
type QueryOptions struct {
	// TopK is the number of chunks to return after fusion.
	TopK int

	// DocumentID restricts retrieval to a single document.
	// Empty means the whole corpus.
	DocumentID string
}

// RetrievedChunk is a chunk plus its fused relevance score.
type RetrievedChunk struct {
	// Chunk is the matched chunk, hydrated from the document store.
	Chunk Chunk

	// Score is the combined lexical+vector score in [0,1].
	Score float64

	// LexicalScore and VectorScore are the per-index normalized scores
	// that contributed to Score. A side absent from the candidate list
	// contributes zero.
	LexicalScore float64
	VectorScore  float64

	// Highlights contains short snippets with matched terms.
	Highlights []string
}

// Citation points a reader back at the source passage for an answer.
type Citation struct {
	// DocumentID is the source document.
	DocumentID string

	// ChunkID is the cited chunk.
	ChunkID string

	// Page is the 1-based page the passage starts on.
	Page int

	// Snippet is a short excerpt of the cited passage.
	Snippet string
}

// Answer is the result of a full question-answering round trip.
type Answer struct {
	// Text is the synthesized answer.
	Text string

	// Citations reference the retrieved passages in rank order.
	Citations []Citation

	// SessionID is the session the turn was recorded under.
	SessionID string

	// FromCache is true when the answer was served from the query cache
	// without a generation call.
	FromCache bool
}
