package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/askdoc/askdoc/internal/chunker"
	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
	"github.com/askdoc/askdoc/internal/core/ports/driving"
	"github.com/askdoc/askdoc/internal/logger"
)

// Ensure IndexerService implements the interface.
var _ driving.Indexer = (*IndexerService)(nil)

// IndexerService ingests documents into the lexical and vector indexes.
// Writes for a given document are serialized; either every chunk lands
// in both indexes or the attempt is rolled back.
type IndexerService struct {
	docStore     driven.DocumentStore
	lexicalIndex driven.LexicalIndex
	vectorIndex  driven.VectorIndex
	embedder     driven.EmbeddingService
	splitter     *chunker.Chunker

	// mu serializes indexing and deletion per document ID so concurrent
	// re-submissions cannot interleave their chunk sets. Entries are
	// refcounted and dropped once no operation holds them.
	mu       sync.Mutex
	inFlight map[string]*docLock

	// invalidate, when set, is notified after a document's chunk set
	// changes so cached answers scoped to it can be dropped.
	invalidate func(documentID string)
}

// NewIndexerService creates an indexer. The embedder and vectorIndex are
// optional as a pair: when either is nil, documents are indexed
// lexical-only and retrieval degrades gracefully.
func NewIndexerService(
	docStore driven.DocumentStore,
	lexicalIndex driven.LexicalIndex,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
	splitter *chunker.Chunker,
) *IndexerService {
	return &IndexerService{
		docStore:     docStore,
		lexicalIndex: lexicalIndex,
		vectorIndex:  vectorIndex,
		embedder:     embedder,
		splitter:     splitter,
		inFlight:     make(map[string]*docLock),
	}
}

// SetInvalidationHook registers a callback fired whenever a document's
// indexed content changes or the document is deleted.
func (s *IndexerService) SetInvalidationHook(fn func(documentID string)) {
	s.invalidate = fn
}

// IndexDocument chunks the text, embeds each chunk, and writes every
// chunk to both indexes. A caller-supplied documentID re-indexes that
// document; an empty ID creates a new document.
func (s *IndexerService) IndexDocument(
	ctx context.Context, documentID, title, text string,
) (*domain.Document, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: document text is empty", domain.ErrInvalidInput)
	}
	if documentID == "" {
		documentID = uuid.New().String()
	}

	unlock := s.lockDocument(documentID)
	defer unlock()

	logger.Section("Document Indexing")
	logger.Info("Indexing document %s (%d chars)", documentID, len(text))

	doc, err := s.prepareDocument(ctx, documentID, title, text)
	if err != nil {
		return nil, err
	}

	// Re-indexing replaces chunks wholesale; never mutate in place.
	if err := s.removeChunks(ctx, documentID); err != nil {
		return nil, s.markFailed(ctx, doc, fmt.Errorf("remove stale chunks: %w", err))
	}

	chunks := s.splitter.Split(documentID, text)
	if len(chunks) == 0 {
		return nil, s.markFailed(ctx, doc, fmt.Errorf("%w: no chunks produced", domain.ErrIndexFailure))
	}
	logger.Debug("Produced %d chunks", len(chunks))

	if err := s.embedChunks(ctx, chunks); err != nil {
		return nil, s.markFailed(ctx, doc, err)
	}

	if err := s.docStore.SaveChunks(ctx, documentID, chunks); err != nil {
		return nil, s.markFailed(ctx, doc, fmt.Errorf("save chunks: %w", err))
	}

	if err := s.writeIndexes(ctx, chunks); err != nil {
		// Compensating rollback: a document must never be retrievable
		// by only one search mode.
		s.rollbackChunks(ctx, chunks)
		return nil, s.markFailed(ctx, doc, err)
	}

	doc.State = domain.StateIndexed
	doc.ChunkCount = len(chunks)
	doc.PageCount = chunker.PageCount(text)
	doc.UpdatedAt = time.Now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if s.invalidate != nil {
		s.invalidate(documentID)
	}

	logger.Info("Document %s indexed: %d chunks across %d pages",
		documentID, doc.ChunkCount, doc.PageCount)
	return doc, nil
}

// DeleteDocument tombstones the document and removes its chunks from
// both indexes and the store.
func (s *IndexerService) DeleteDocument(ctx context.Context, documentID string) error {
	unlock := s.lockDocument(documentID)
	defer unlock()

	doc, err := s.docStore.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	logger.Info("Deleting document %s", documentID)

	// Tombstone first so retrieval stops seeing the document even if a
	// later step fails; physical cleanup can be retried.
	doc.State = domain.StateDeleted
	doc.UpdatedAt = time.Now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("tombstone document: %w", err)
	}

	if err := s.removeChunks(ctx, documentID); err != nil {
		return fmt.Errorf("remove chunks: %w", err)
	}

	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if s.invalidate != nil {
		s.invalidate(documentID)
	}
	return nil
}

// Rebuild repopulates both indexes from persisted chunks. Recovery path
// after index loss; embeddings are reused, not regenerated.
func (s *IndexerService) Rebuild(ctx context.Context) error {
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	logger.Section("Index Rebuild")
	var rebuilt int
	for i := range docs {
		if docs[i].State != domain.StateIndexed {
			continue
		}
		chunks, err := s.docStore.GetChunks(ctx, docs[i].ID)
		if err != nil {
			return fmt.Errorf("load chunks for %s: %w", docs[i].ID, err)
		}
		if err := s.writeIndexes(ctx, chunks); err != nil {
			return fmt.Errorf("rebuild %s: %w", docs[i].ID, err)
		}
		rebuilt++
	}

	logger.Info("Rebuilt indexes for %d documents", rebuilt)
	return nil
}

// ListDocuments returns all known documents.
func (s *IndexerService) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	return s.docStore.ListDocuments(ctx)
}

// prepareDocument loads or creates the document record and moves it to
// the indexing state.
func (s *IndexerService) prepareDocument(
	ctx context.Context, documentID, title, text string,
) (*domain.Document, error) {
	doc, err := s.docStore.GetDocument(ctx, documentID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		doc = &domain.Document{
			ID:        documentID,
			Title:     title,
			State:     domain.StateUploaded,
			CreatedAt: time.Now(),
		}
	case err != nil:
		return nil, fmt.Errorf("get document: %w", err)
	}

	if !doc.State.CanTransitionTo(domain.StateIndexing) {
		return nil, fmt.Errorf("%w: %s cannot be re-indexed from state %s",
			domain.ErrInvalidTransition, documentID, doc.State)
	}

	if title != "" {
		doc.Title = title
	}
	doc.State = domain.StateIndexing
	doc.PageCount = chunker.PageCount(text)
	doc.UpdatedAt = time.Now()

	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	return doc, nil
}

// embedChunks generates embeddings in one batch call. A nil embedder
// leaves chunks without embeddings (lexical-only indexing).
func (s *IndexerService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	if s.embedder == nil || s.vectorIndex == nil {
		logger.Debug("No embedding service configured; indexing lexical-only")
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embed chunks: %v", domain.ErrIndexFailure, err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: embedder returned %d embeddings for %d chunks",
			domain.ErrIndexFailure, len(embeddings), len(chunks))
	}

	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}
	return nil
}

// writeIndexes adds every chunk to the lexical index and, when
// embeddings are present, to the vector index.
func (s *IndexerService) writeIndexes(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if err := s.lexicalIndex.Add(ctx, chunks[i]); err != nil {
			return fmt.Errorf("%w: lexical add %s: %v", domain.ErrIndexFailure, chunks[i].ID, err)
		}
	}

	if s.vectorIndex == nil {
		return nil
	}
	for i := range chunks {
		if chunks[i].Embedding == nil {
			continue
		}
		if err := s.vectorIndex.Add(ctx, chunks[i].ID, chunks[i].DocumentID, chunks[i].Embedding); err != nil {
			return fmt.Errorf("%w: vector add %s: %v", domain.ErrIndexFailure, chunks[i].ID, err)
		}
	}
	return nil
}

// rollbackChunks removes the chunk set from whichever index accepted it.
// Removal of a chunk an index never saw is a no-op, so this is safe to
// run after a partial write.
func (s *IndexerService) rollbackChunks(ctx context.Context, chunks []domain.Chunk) {
	logger.Warn("Rolling back partial index write for %d chunks", len(chunks))
	for i := range chunks {
		if err := s.lexicalIndex.Remove(ctx, chunks[i].ID); err != nil {
			logger.Warn("Rollback: lexical remove %s: %v", chunks[i].ID, err)
		}
		if s.vectorIndex != nil {
			if err := s.vectorIndex.Remove(ctx, chunks[i].ID); err != nil {
				logger.Warn("Rollback: vector remove %s: %v", chunks[i].ID, err)
			}
		}
	}
}

// removeChunks deletes a document's current chunks from both indexes
// and is used by re-indexing and deletion.
func (s *IndexerService) removeChunks(ctx context.Context, documentID string) error {
	chunks, err := s.docStore.GetChunks(ctx, documentID)
	if err != nil {
		return err
	}
	for i := range chunks {
		if err := s.lexicalIndex.Remove(ctx, chunks[i].ID); err != nil {
			return fmt.Errorf("lexical remove %s: %w", chunks[i].ID, err)
		}
		if s.vectorIndex != nil {
			if err := s.vectorIndex.Remove(ctx, chunks[i].ID); err != nil {
				return fmt.Errorf("vector remove %s: %w", chunks[i].ID, err)
			}
		}
	}
	return nil
}

// markFailed records the failed state and wraps the cause.
func (s *IndexerService) markFailed(ctx context.Context, doc *domain.Document, cause error) error {
	doc.State = domain.StateFailed
	doc.UpdatedAt = time.Now()
	if err := s.docStore.SaveDocument(ctx, doc); err != nil {
		logger.Warn("Could not record failed state for %s: %v", doc.ID, err)
	}
	if errors.Is(cause, domain.ErrIndexFailure) {
		return cause
	}
	return fmt.Errorf("%w: %v", domain.ErrIndexFailure, cause)
}

// docLock is a per-document mutex with a count of waiting holders.
type docLock struct {
	mu   sync.Mutex
	refs int
}

// lockDocument serializes operations on one document ID. The returned
// release drops the map entry when the last holder lets go, so the map
// stays bounded by the number of in-flight operations.
func (s *IndexerService) lockDocument(documentID string) func() {
	s.mu.Lock()
	lock, ok := s.inFlight[documentID]
	if !ok {
		lock = &docLock{}
		s.inFlight[documentID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.inFlight, documentID)
		}
		s.mu.Unlock()
	}
}
