package services

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
)

// mockDocStore is an in-memory DocumentStore with error injection.
type mockDocStore struct {
	mu        sync.Mutex
	documents map[string]*domain.Document
	chunks    map[string]domain.Chunk

	saveChunksErr error
	getDocErr     error
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{
		documents: make(map[string]*domain.Document),
		chunks:    make(map[string]domain.Chunk),
	}
}

func (m *mockDocStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *doc
	m.documents[doc.ID] = &cp
	return nil
}

func (m *mockDocStore) SaveChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveChunksErr != nil {
		return m.saveChunksErr
	}
	for id, c := range m.chunks {
		if c.DocumentID == documentID {
			delete(m.chunks, id)
		}
	}
	for _, c := range chunks {
		m.chunks[c.ID] = c
	}
	return nil
}

func (m *mockDocStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getDocErr != nil {
		return nil, m.getDocErr
	}
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (m *mockDocStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Chunk
	for _, c := range m.chunks {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockDocStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (m *mockDocStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.documents, id)
	for cid, c := range m.chunks {
		if c.DocumentID == id {
			delete(m.chunks, cid)
		}
	}
	return nil
}

func (m *mockDocStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Document, 0, len(m.documents))
	for _, d := range m.documents {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// mockLexical records adds and removes and serves canned hits.
type mockLexical struct {
	mu      sync.Mutex
	added   map[string]domain.Chunk
	removed []string

	hits      []driven.LexicalHit
	addErr    error
	searchErr error
}

func newMockLexical() *mockLexical {
	return &mockLexical{added: make(map[string]domain.Chunk)}
}

func (m *mockLexical) Add(_ context.Context, chunk domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.added[chunk.ID] = chunk
	return nil
}

func (m *mockLexical) Remove(_ context.Context, chunkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.added, chunkID)
	m.removed = append(m.removed, chunkID)
	return nil
}

func (m *mockLexical) Search(_ context.Context, _ string, limit int, _ string) ([]driven.LexicalHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if limit < len(m.hits) {
		return m.hits[:limit], nil
	}
	return m.hits, nil
}

func (m *mockLexical) Stats() driven.LexicalStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return driven.LexicalStats{ChunkCount: len(m.added)}
}

func (m *mockLexical) Close() error { return nil }

// mockVector mirrors mockLexical for the vector side.
type mockVector struct {
	mu      sync.Mutex
	added   map[string][]float32
	removed []string

	hits      []driven.VectorHit
	addErr    error
	searchErr error
}

func newMockVector() *mockVector {
	return &mockVector{added: make(map[string][]float32)}
}

func (m *mockVector) Add(_ context.Context, chunkID, _ string, embedding []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return m.addErr
	}
	m.added[chunkID] = embedding
	return nil
}

func (m *mockVector) Remove(_ context.Context, chunkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.added, chunkID)
	m.removed = append(m.removed, chunkID)
	return nil
}

func (m *mockVector) Search(_ context.Context, _ []float32, k int, _ string) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if k < len(m.hits) {
		return m.hits[:k], nil
	}
	return m.hits, nil
}

func (m *mockVector) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.added)
}

func (m *mockVector) Close() error { return nil }

// mockEmbedder returns a fixed-dimension vector derived from text length.
type mockEmbedder struct {
	dims     int
	embedErr error
	batchErr error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	vec := make([]float32, m.dims)
	for i := range vec {
		vec[i] = float32(len(text)%7 + i)
	}
	return vec, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int   { return m.dims }
func (m *mockEmbedder) ModelName() string { return "mock-embed" }
func (m *mockEmbedder) Close() error      { return nil }

// mockGenerator echoes a canned answer and records prompts.
type mockGenerator struct {
	mu       sync.Mutex
	prompts  []string
	response string
	err      error
}

func (m *mockGenerator) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.prompts = append(m.prompts, prompt)
	if m.response != "" {
		return m.response, nil
	}
	return "generated answer", nil
}

func (m *mockGenerator) ModelName() string { return "mock-gen" }
func (m *mockGenerator) Close() error      { return nil }

func (m *mockGenerator) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

// seedChunk adds a retrievable chunk to the store.
func seedChunk(store *mockDocStore, chunkID, documentID, content string, page int) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.chunks[chunkID] = domain.Chunk{
		ID:         chunkID,
		DocumentID: documentID,
		Position:   parsePosition(chunkID),
		Content:    content,
		Page:       page,
	}
}

func parsePosition(chunkID string) int {
	idx := strings.LastIndex(chunkID, "#")
	if idx < 0 {
		return 0
	}
	pos := 0
	for _, r := range chunkID[idx+1:] {
		if r < '0' || r > '9' {
			return 0
		}
		pos = pos*10 + int(r-'0')
	}
	return pos
}
