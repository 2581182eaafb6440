package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStoreCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "askdoc.db"), store.Path())
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestSaveAndGetDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := &domain.Document{
		ID:         "doc-1",
		OwnerID:    "user-1",
		Title:      "Employee Handbook",
		State:      domain.StateIndexed,
		PageCount:  12,
		ChunkCount: 40,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveDocument(ctx, doc))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Employee Handbook", got.Title)
	assert.Equal(t, domain.StateIndexed, got.State)
	assert.Equal(t, 12, got.PageCount)
	assert.Equal(t, 40, got.ChunkCount)
}

func TestGetDocumentNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDocument(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveDocumentUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID:    "doc-1",
		State: domain.StateUploaded,
	}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID:    "doc-1",
		State: domain.StateIndexing,
	}))

	got, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateIndexing, got.State)
}

func TestChunksRoundTripWithEmbeddings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID:    "doc-1",
		State: domain.StateIndexing,
	}))

	chunks := []domain.Chunk{
		{
			ID:          "doc-1#0000",
			DocumentID:  "doc-1",
			Position:    0,
			Content:     "first chunk",
			StartOffset: 0,
			EndOffset:   11,
			Page:        1,
			Embedding:   []float32{0.25, -1.5, 3.75},
		},
		{
			ID:          "doc-1#0001",
			DocumentID:  "doc-1",
			Position:    1,
			Content:     "second chunk",
			StartOffset: 9,
			EndOffset:   21,
			Page:        2,
		},
	}
	require.NoError(t, store.SaveChunks(ctx, "doc-1", chunks))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first chunk", got[0].Content)
	assert.Equal(t, []float32{0.25, -1.5, 3.75}, got[0].Embedding)
	assert.Nil(t, got[1].Embedding)
	assert.Equal(t, 2, got[1].Page)

	single, err := store.GetChunk(ctx, "doc-1#0001")
	require.NoError(t, err)
	assert.Equal(t, "second chunk", single.Content)
}

func TestSaveChunksReplacesPreviousSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID:    "doc-1",
		State: domain.StateIndexing,
	}))

	require.NoError(t, store.SaveChunks(ctx, "doc-1", []domain.Chunk{
		{ID: "doc-1#0000", DocumentID: "doc-1", Position: 0, Content: "v1 a"},
		{ID: "doc-1#0001", DocumentID: "doc-1", Position: 1, Content: "v1 b"},
		{ID: "doc-1#0002", DocumentID: "doc-1", Position: 2, Content: "v1 c"},
	}))
	require.NoError(t, store.SaveChunks(ctx, "doc-1", []domain.Chunk{
		{ID: "doc-1#0000", DocumentID: "doc-1", Position: 0, Content: "v2 a"},
	}))

	got, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "v2 a", got[0].Content)
}

func TestDeleteDocumentCascadesToChunks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID:    "doc-1",
		State: domain.StateIndexed,
	}))
	require.NoError(t, store.SaveChunks(ctx, "doc-1", []domain.Chunk{
		{ID: "doc-1#0000", DocumentID: "doc-1", Position: 0, Content: "body"},
	}))

	require.NoError(t, store.DeleteDocument(ctx, "doc-1"))

	_, err := store.GetDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	chunks, err := store.GetChunks(ctx, "doc-1")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestDeleteDocumentNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.DeleteDocument(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListDocumentsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID: "old", State: domain.StateIndexed, CreatedAt: base.Add(-time.Hour),
	}))
	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID: "new", State: domain.StateIndexed, CreatedAt: base,
	}))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "old", docs[1].ID)
}
