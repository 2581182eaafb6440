package driving

import (
	"context"

	"github.com/askdoc/askdoc/internal/core/domain"
)

// Indexer manages document ingestion into both indexes.
type Indexer interface {
	// IndexDocument chunks the extracted text and writes every chunk to
	// both the lexical and vector indexes. The text is pages joined by
	// form feed (\f). Either all chunks land in both indexes and the
	// document becomes indexed, or the attempt is rolled back and the
	// document is marked failed.
	IndexDocument(ctx context.Context, documentID, title, text string) (*domain.Document, error)

	// DeleteDocument tombstones a document and removes its chunks from
	// both indexes. Returns domain.ErrNotFound for an unknown ID.
	DeleteDocument(ctx context.Context, documentID string) error

	// Rebuild repopulates both indexes from the persisted chunks of all
	// indexed documents. Recovery path after index loss.
	Rebuild(ctx context.Context) error

	// ListDocuments returns all known documents with lifecycle state.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}
