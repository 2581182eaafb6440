package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
)

func newTestRetriever(store *mockDocStore, lex *mockLexical, vec *mockVector) *RetrieverService {
	if vec == nil {
		return NewRetrieverService(store, lex, nil, nil)
	}
	return NewRetrieverService(store, lex, vec, &mockEmbedder{dims: 4})
}

func seedIndexedDoc(t *testing.T, store *mockDocStore, id string) {
	t.Helper()
	require.NoError(t, store.SaveDocument(context.Background(), &domain.Document{
		ID:    id,
		State: domain.StateIndexed,
	}))
}

func TestRetrieveEmptyQuestion(t *testing.T) {
	svc := newTestRetriever(newMockDocStore(), newMockLexical(), nil)

	_, err := svc.Retrieve(context.Background(), "  ", domain.QueryOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveNegativeTopK(t *testing.T) {
	svc := newTestRetriever(newMockDocStore(), newMockLexical(), nil)

	_, err := svc.Retrieve(context.Background(), "question", domain.QueryOptions{TopK: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveFusesBothLists(t *testing.T) {
	store := newMockDocStore()
	seedChunk(store, "doc-1#0000", "doc-1", "alpha content", 1)
	seedChunk(store, "doc-1#0001", "doc-1", "beta content", 1)
	seedChunk(store, "doc-1#0002", "doc-1", "gamma content", 2)

	lex := newMockLexical()
	lex.hits = []driven.LexicalHit{
		{ChunkID: "doc-1#0000", Score: 4.0},
		{ChunkID: "doc-1#0001", Score: 1.0},
	}
	vec := newMockVector()
	vec.hits = []driven.VectorHit{
		{ChunkID: "doc-1#0001", Similarity: 0.9},
		{ChunkID: "doc-1#0002", Similarity: 0.2},
	}

	svc := newTestRetriever(store, lex, vec)
	results, err := svc.Retrieve(context.Background(), "content", domain.QueryOptions{TopK: 3})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// With alpha 0.5: chunk 0000 normalizes to lexical 1.0 (0.5 combined),
	// 0001 to lexical 0.0 + vector 1.0 (0.5), 0002 to vector 0.0 (0.0).
	// The 0.5 tie breaks by chunk ID.
	assert.Equal(t, "doc-1#0000", results[0].Chunk.ID)
	assert.Equal(t, "doc-1#0001", results[1].Chunk.ID)
	assert.Equal(t, "doc-1#0002", results[2].Chunk.ID)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Greater(t, results[1].Score, results[2].Score)
}

func TestRetrieveAlphaShiftsRanking(t *testing.T) {
	store := newMockDocStore()
	seedChunk(store, "doc-1#0000", "doc-1", "lexical favourite", 1)
	seedChunk(store, "doc-1#0001", "doc-1", "vector favourite", 1)

	lex := newMockLexical()
	lex.hits = []driven.LexicalHit{
		{ChunkID: "doc-1#0000", Score: 5.0},
		{ChunkID: "doc-1#0001", Score: 1.0},
	}
	vec := newMockVector()
	vec.hits = []driven.VectorHit{
		{ChunkID: "doc-1#0001", Similarity: 0.95},
		{ChunkID: "doc-1#0000", Similarity: 0.10},
	}

	svc := newTestRetriever(store, lex, vec)

	tuning := domain.DefaultTuning()
	tuning.Alpha = 1.0
	require.NoError(t, svc.SetTuning(tuning))
	results, err := svc.Retrieve(context.Background(), "favourite", domain.QueryOptions{TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, "doc-1#0000", results[0].Chunk.ID)

	tuning.Alpha = 0.0
	require.NoError(t, svc.SetTuning(tuning))
	results, err = svc.Retrieve(context.Background(), "favourite", domain.QueryOptions{TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, "doc-1#0001", results[0].Chunk.ID)
}

func TestRetrieveLexicalOnlyWithoutEmbedder(t *testing.T) {
	store := newMockDocStore()
	seedChunk(store, "doc-1#0000", "doc-1", "only lexical search available", 1)

	lex := newMockLexical()
	lex.hits = []driven.LexicalHit{{ChunkID: "doc-1#0000", Score: 2.0}}

	svc := newTestRetriever(store, lex, nil)
	results, err := svc.Retrieve(context.Background(), "lexical", domain.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].LexicalScore)
	assert.Equal(t, 0.0, results[0].VectorScore)
}

func TestRetrieveDegradesOnVectorFailure(t *testing.T) {
	store := newMockDocStore()
	seedChunk(store, "doc-1#0000", "doc-1", "resilient content", 1)

	lex := newMockLexical()
	lex.hits = []driven.LexicalHit{{ChunkID: "doc-1#0000", Score: 2.0}}
	vec := newMockVector()
	vec.searchErr = errors.New("connection refused")

	svc := newTestRetriever(store, lex, vec)
	results, err := svc.Retrieve(context.Background(), "resilient", domain.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-1#0000", results[0].Chunk.ID)
}

func TestRetrieveFailsOnLexicalFailure(t *testing.T) {
	lex := newMockLexical()
	lex.searchErr = errors.New("index corrupted")

	svc := newTestRetriever(newMockDocStore(), lex, nil)
	_, err := svc.Retrieve(context.Background(), "anything", domain.QueryOptions{})
	assert.Error(t, err)
}

func TestRetrieveScopedToMissingDocument(t *testing.T) {
	lex := newMockLexical()
	lex.hits = []driven.LexicalHit{{ChunkID: "doc-1#0000", Score: 1.0}}
	svc := newTestRetriever(newMockDocStore(), lex, nil)

	results, err := svc.Retrieve(context.Background(), "question", domain.QueryOptions{DocumentID: "ghost"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveScopedToDeletedDocument(t *testing.T) {
	store := newMockDocStore()
	lex := newMockLexical()
	indexer := newTestIndexer(store, lex, nil, nil)

	_, err := indexer.IndexDocument(context.Background(), "doc-1", "Manual",
		"The heliotrope clause governs early contract termination.")
	require.NoError(t, err)
	require.NoError(t, indexer.DeleteDocument(context.Background(), "doc-1"))

	// Canned hits prove the scope check short-circuits before searching.
	lex.hits = []driven.LexicalHit{{ChunkID: "doc-1#0000", Score: 1.0}}

	svc := newTestRetriever(store, lex, nil)
	results, err := svc.Retrieve(context.Background(), "heliotrope",
		domain.QueryOptions{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveScopedToUnreadyDocument(t *testing.T) {
	store := newMockDocStore()
	require.NoError(t, store.SaveDocument(context.Background(), &domain.Document{
		ID:    "doc-1",
		State: domain.StateIndexing,
	}))

	lex := newMockLexical()
	lex.hits = []driven.LexicalHit{{ChunkID: "doc-1#0000", Score: 1.0}}

	svc := newTestRetriever(store, lex, nil)
	results, err := svc.Retrieve(context.Background(), "question", domain.QueryOptions{DocumentID: "doc-1"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRetrieveSkipsVanishedChunks(t *testing.T) {
	store := newMockDocStore()
	seedChunk(store, "doc-1#0000", "doc-1", "still here", 1)

	lex := newMockLexical()
	lex.hits = []driven.LexicalHit{
		{ChunkID: "doc-1#0000", Score: 2.0},
		{ChunkID: "doc-1#0001", Score: 1.0},
	}

	svc := newTestRetriever(store, lex, nil)
	results, err := svc.Retrieve(context.Background(), "here", domain.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "doc-1#0000", results[0].Chunk.ID)
}

func TestRetrieveTopKCapsResults(t *testing.T) {
	store := newMockDocStore()
	lex := newMockLexical()
	hits := make([]driven.LexicalHit, 0, 10)
	for i := 0; i < 10; i++ {
		id := chunkIDForTest(i)
		seedChunk(store, id, "doc-1", "filler content", 1)
		hits = append(hits, driven.LexicalHit{ChunkID: id, Score: float64(10 - i)})
	}
	lex.hits = hits

	svc := newTestRetriever(store, lex, nil)
	results, err := svc.Retrieve(context.Background(), "filler", domain.QueryOptions{TopK: 4})
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func chunkIDForTest(i int) string {
	return "doc-1#000" + string(rune('0'+i))
}

func TestRetrieveHighlightsContainQueryTerms(t *testing.T) {
	store := newMockDocStore()
	seedChunk(store, "doc-1#0000", "doc-1",
		"The warranty covers parts. Labour is billed separately. Shipping is free.", 1)

	lex := newMockLexical()
	lex.hits = []driven.LexicalHit{{ChunkID: "doc-1#0000", Score: 1.5}}

	svc := newTestRetriever(store, lex, nil)
	results, err := svc.Retrieve(context.Background(), "warranty", domain.QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotEmpty(t, results[0].Highlights)
	assert.Contains(t, results[0].Highlights[0], "warranty")
}

func TestSetTuningRejectsInvalid(t *testing.T) {
	svc := newTestRetriever(newMockDocStore(), newMockLexical(), nil)

	bad := domain.DefaultTuning()
	bad.Alpha = 1.5
	assert.Error(t, svc.SetTuning(bad))
	assert.Equal(t, domain.DefaultTuning(), svc.Tuning())
}

func TestMinMaxNormalization(t *testing.T) {
	scores := []float64{2.0, 6.0, 4.0}
	norm := minMax(len(scores), func(i int) float64 { return scores[i] })
	assert.Equal(t, []float64{0.0, 1.0, 0.5}, norm)

	uniform := minMax(3, func(int) float64 { return 5.0 })
	assert.Equal(t, []float64{1.0, 1.0, 1.0}, uniform)

	assert.Nil(t, minMax(0, nil))
}
