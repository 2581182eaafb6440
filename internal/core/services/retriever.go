package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
	"github.com/askdoc/askdoc/internal/logger"
)

// maxHighlights caps the snippets attached to each retrieved chunk.
const maxHighlights = 3

// fusedScore holds a chunk's per-index normalized scores before hydration.
type fusedScore struct {
	chunkID string
	lexical float64
	vector  float64
}

// RetrieverService merges lexical and vector search into one ranked
// list per query. Retrieval is read-only with respect to the indexes.
type RetrieverService struct {
	docStore     driven.DocumentStore
	lexicalIndex driven.LexicalIndex
	vectorIndex  driven.VectorIndex
	embedder     driven.EmbeddingService

	mu     sync.RWMutex
	tuning domain.Tuning
}

// NewRetrieverService creates a retriever. The embedder and vectorIndex
// are optional; without them retrieval is lexical-only.
func NewRetrieverService(
	docStore driven.DocumentStore,
	lexicalIndex driven.LexicalIndex,
	vectorIndex driven.VectorIndex,
	embedder driven.EmbeddingService,
) *RetrieverService {
	return &RetrieverService{
		docStore:     docStore,
		lexicalIndex: lexicalIndex,
		vectorIndex:  vectorIndex,
		embedder:     embedder,
		tuning:       domain.DefaultTuning(),
	}
}

// SetTuning replaces the retrieval tuning as one unit. Invalid tuning
// is rejected so a hot reload cannot half-apply.
func (s *RetrieverService) SetTuning(t domain.Tuning) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.tuning = t
	s.mu.Unlock()

	if setter, ok := s.lexicalIndex.(interface{ SetConstants(k1, b float64) }); ok {
		setter.SetConstants(t.BM25K1, t.BM25B)
	}
	return nil
}

// Tuning returns the current tuning values.
func (s *RetrieverService) Tuning() domain.Tuning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tuning
}

// Retrieve runs both searches, fuses the ranked lists, and hydrates the
// winners from the document store.
func (s *RetrieverService) Retrieve(
	ctx context.Context, question string, opts domain.QueryOptions,
) ([]domain.RetrievedChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	if opts.TopK < 0 {
		return nil, fmt.Errorf("%w: top-k must not be negative", domain.ErrInvalidInput)
	}

	tuning := s.Tuning()
	topK := opts.TopK
	if topK == 0 {
		// Zero means unset: fall back to the configured default.
		topK = tuning.TopK
	}

	// Verify scope before touching the indexes. A missing or deleted
	// document yields empty results, same as a document with no
	// retrievable chunks: the corpus simply has nothing in that scope.
	if opts.DocumentID != "" {
		doc, err := s.docStore.GetDocument(ctx, opts.DocumentID)
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug("Document %s not found; returning no results", opts.DocumentID)
			return []domain.RetrievedChunk{}, nil
		}
		if err != nil {
			return nil, err
		}
		if doc.State != domain.StateIndexed {
			logger.Debug("Document %s in state %s; returning no results", doc.ID, doc.State)
			return []domain.RetrievedChunk{}, nil
		}
	}

	// Over-fetch so fusion has candidates beyond the final cut.
	fetchLimit := topK * tuning.OverfetchFactor

	logger.Section("Hybrid Retrieval")
	logger.Debug("Query: %q, scope: %q, top-k: %d, fetch: %d",
		question, opts.DocumentID, topK, fetchLimit)

	lexHits, vecHits, err := s.searchBoth(ctx, question, fetchLimit, opts.DocumentID)
	if err != nil {
		return nil, err
	}
	logger.Debug("Candidates: %d lexical, %d vector", len(lexHits), len(vecHits))

	fused := fuse(lexHits, vecHits, tuning.Alpha)
	if len(fused) > topK {
		fused = fused[:topK]
	}

	return s.hydrate(ctx, fused, question, tuning.Alpha)
}

// searchBoth runs lexical and vector search in parallel. A vector-side
// failure degrades to lexical-only rather than failing the query.
func (s *RetrieverService) searchBoth(
	ctx context.Context, question string, limit int, documentID string,
) ([]driven.LexicalHit, []driven.VectorHit, error) {
	var (
		wg      sync.WaitGroup
		lexHits []driven.LexicalHit
		lexErr  error
		vecHits []driven.VectorHit
		vecErr  error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		lexHits, lexErr = s.lexicalIndex.Search(ctx, question, limit, documentID)
	}()

	if s.vectorIndex != nil && s.embedder != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vecHits, vecErr = s.vectorSearch(ctx, question, limit, documentID)
		}()
	}

	wg.Wait()

	if lexErr != nil {
		return nil, nil, fmt.Errorf("lexical search: %w", lexErr)
	}
	if vecErr != nil {
		if errors.Is(vecErr, context.Canceled) || errors.Is(vecErr, context.DeadlineExceeded) {
			return nil, nil, vecErr
		}
		logger.Warn("Vector search failed, degrading to lexical-only: %v", vecErr)
		vecHits = nil
	}
	return lexHits, vecHits, nil
}

// vectorSearch embeds the question and queries the vector index.
func (s *RetrieverService) vectorSearch(
	ctx context.Context, question string, limit int, documentID string,
) ([]driven.VectorHit, error) {
	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.vectorIndex.Search(ctx, embedding, limit, documentID)
}

// fuse normalizes each list's scores to [0,1] by min-max scaling within
// that list, then combines them as alpha*lexical + (1-alpha)*vector.
// A chunk present in only one list contributes zero for the missing
// side. The result is sorted by combined score, ties by chunk ID.
func fuse(lexHits []driven.LexicalHit, vecHits []driven.VectorHit, alpha float64) []fusedScore {
	byID := make(map[string]*fusedScore, len(lexHits)+len(vecHits))

	lexNorm := minMax(len(lexHits), func(i int) float64 { return lexHits[i].Score })
	for i, hit := range lexHits {
		byID[hit.ChunkID] = &fusedScore{chunkID: hit.ChunkID, lexical: lexNorm[i]}
	}

	vecNorm := minMax(len(vecHits), func(i int) float64 { return vecHits[i].Similarity })
	for i, hit := range vecHits {
		if f, ok := byID[hit.ChunkID]; ok {
			f.vector = vecNorm[i]
		} else {
			byID[hit.ChunkID] = &fusedScore{chunkID: hit.ChunkID, vector: vecNorm[i]}
		}
	}

	fused := make([]fusedScore, 0, len(byID))
	for _, f := range byID {
		fused = append(fused, *f)
	}

	sort.Slice(fused, func(i, j int) bool {
		si := combined(fused[i], alpha)
		sj := combined(fused[j], alpha)
		if si != sj {
			return si > sj
		}
		return fused[i].chunkID < fused[j].chunkID
	})
	return fused
}

func combined(f fusedScore, alpha float64) float64 {
	return alpha*f.lexical + (1-alpha)*f.vector
}

// minMax scales n scores to [0,1] within the list. A single candidate,
// or a list where all scores are equal, maps to 1.0 so that side still
// contributes its full weight.
func minMax(n int, score func(int) float64) []float64 {
	if n == 0 {
		return nil
	}
	lo, hi := score(0), score(0)
	for i := 1; i < n; i++ {
		s := score(i)
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	out := make([]float64, n)
	if hi == lo {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = (score(i) - lo) / (hi - lo)
	}
	return out
}

// hydrate converts fused chunk IDs into full results with source text
// and highlights. Chunks deleted since the search are skipped.
func (s *RetrieverService) hydrate(
	ctx context.Context, fused []fusedScore, question string, alpha float64,
) ([]domain.RetrievedChunk, error) {
	results := make([]domain.RetrievedChunk, 0, len(fused))
	for _, f := range fused {
		chunk, err := s.docStore.GetChunk(ctx, f.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", f.chunkID, err)
		}

		results = append(results, domain.RetrievedChunk{
			Chunk:        *chunk,
			Score:        combined(f, alpha),
			LexicalScore: f.lexical,
			VectorScore:  f.vector,
			Highlights:   highlights(chunk.Content, question),
		})
	}

	logger.Info("Retrieved %d chunks", len(results))
	return results, nil
}

// highlights creates short snippets containing query terms.
func highlights(content, question string) []string {
	terms := strings.Fields(strings.ToLower(question))
	if len(terms) == 0 {
		return nil
	}

	var out []string
	for _, sentence := range splitSentences(content) {
		lower := strings.ToLower(sentence)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				if len(sentence) > 200 {
					sentence = sentence[:200] + "..."
				}
				out = append(out, sentence)
				break
			}
		}
		if len(out) >= maxHighlights {
			break
		}
	}
	return out
}

// splitSentences splits content on common sentence terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
