package domain

import "time"

// DocumentState tracks a document through its indexing lifecycle.
type DocumentState string

// Document lifecycle states.
const (
	// StateUploaded means the raw bytes have been accepted but not indexed.
	StateUploaded DocumentState = "uploaded"

	// StateIndexing means an indexing attempt is in flight.
	StateIndexing DocumentState = "indexing"

	// StateIndexed means every chunk is present in both the lexical and
	// vector indexes.
	StateIndexed DocumentState = "indexed"

	// StateFailed means an indexing attempt failed and was rolled back.
	// The document may be re-submitted.
	StateFailed DocumentState = "failed"

	// StateDeleted means the document was tombstoned and its chunks
	// removed from both indexes.
	StateDeleted DocumentState = "deleted"
)

// IsValid returns true if the state is recognised.
func (s DocumentState) IsValid() bool {
	switch s {
	case StateUploaded, StateIndexing, StateIndexed, StateFailed, StateDeleted:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether a lifecycle transition is allowed.
// Indexed is only reachable through indexing; deleted is terminal.
func (s DocumentState) CanTransitionTo(next DocumentState) bool {
	switch s {
	case StateUploaded:
		return next == StateIndexing || next == StateDeleted
	case StateIndexing:
		return next == StateIndexed || next == StateFailed || next == StateDeleted
	case StateIndexed:
		return next == StateIndexing || next == StateDeleted
	case StateFailed:
		return next == StateIndexing || next == StateDeleted
	case StateDeleted:
		return false
	default:
		return false
	}
}

// Document represents an uploaded document and its indexing lifecycle.
type Document struct {
	// ID is the unique identifier, caller-supplied or generated on upload.
	ID string

	// OwnerID references the uploading user. Auth itself is external.
	OwnerID string

	// Title is the human-readable title (typically the filename).
	Title string

	// State is the current lifecycle state.
	State DocumentState

	// PageCount is the number of pages in the extracted text.
	PageCount int

	// ChunkCount is the number of chunks produced by the last successful
	// indexing run.
	ChunkCount int

	// CreatedAt is when the document was first uploaded.
	CreatedAt time.Time

	// UpdatedAt is when the document last changed state.
	UpdatedAt time.Time
}

// Chunk is the atomic unit of retrieval: a contiguous passage of a
// document's text. Chunks are immutable once created; re-indexing a
// document replaces its chunks wholesale.
type Chunk struct {
	// ID is unique within the corpus, derived deterministically from the
	// document ID and position.
	ID string

	// DocumentID links to the owning Document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Content is the text content of this chunk.
	Content string

	// StartOffset and EndOffset are rune offsets of Content within the
	// document text, so results can be mapped back to a page.
	StartOffset int
	EndOffset   int

	// Page is the 1-based page number the chunk starts on.
	Page int

	// Embedding is the vector representation for semantic search.
	// Nil when no embedding service is configured.
	Embedding []float32
}
