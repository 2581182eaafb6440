package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document or session does not exist.
	// Surfaced directly to the caller, never retried.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed input (empty question, zero
	// top-k, blank document ID). Rejected before touching any index.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIndexFailure indicates chunking or an index write failed.
	// The document is rolled back to failed state and may be re-submitted.
	ErrIndexFailure = errors.New("indexing failed")

	// ErrDocumentNotReady indicates the document exists but is not in the
	// indexed state, so it cannot be queried yet.
	ErrDocumentNotReady = errors.New("document not indexed")

	// ErrGeneratorUnavailable indicates the LLM completion service is not
	// configured, unreachable, or timed out. Retrieval still works; only
	// answer synthesis is affected.
	ErrGeneratorUnavailable = errors.New("generation unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Semantic search is disabled; lexical search still works.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates an embedding's dimension does not
	// match the vector index configuration.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidTransition indicates a disallowed document state change.
	ErrInvalidTransition = errors.New("invalid state transition")
)
