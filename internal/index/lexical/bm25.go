// Package lexical provides an in-memory BM25 inverted index over chunks.
package lexical

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.LexicalIndex = (*Index)(nil)

// idfFloor keeps rare-term IDF from going negative when a term appears
// in more than half the corpus.
const idfFloor = 0.01

// posting records one chunk's occurrence data for a term.
type posting struct {
	chunkID string
	freq    int
}

// chunkStats holds per-chunk data needed for scoring and removal.
type chunkStats struct {
	documentID string
	length     int
	termFreqs  map[string]int
	order      int
}

// Option configures the index.
type Option func(*Index)

// WithStopWords enables stop-word removal during tokenization.
// This changes recall and is therefore off by default.
func WithStopWords() Option {
	return func(ix *Index) {
		ix.tokenizer = NewTokenizer(true)
	}
}

// WithK1 sets the BM25 term-frequency saturation constant.
func WithK1(k1 float64) Option {
	return func(ix *Index) {
		if k1 > 0 {
			ix.k1 = k1
		}
	}
}

// WithB sets the BM25 length-normalization constant.
func WithB(b float64) Option {
	return func(ix *Index) {
		if b >= 0 && b <= 1 {
			ix.b = b
		}
	}
}

// Index is an in-memory inverted index with BM25 ranking.
// Writes are serialized and reads proceed concurrently under a
// read-write lock so aggregate statistics stay consistent.
type Index struct {
	mu        sync.RWMutex
	tokenizer *Tokenizer
	k1        float64
	b         float64

	postings    map[string][]posting
	chunks      map[string]chunkStats
	totalLength int
	nextOrder   int
}

// New creates an empty index with the given options.
func New(opts ...Option) *Index {
	ix := &Index{
		tokenizer: NewTokenizer(false),
		k1:        domain.DefaultBM25K1,
		b:         domain.DefaultBM25B,
		postings:  make(map[string][]posting),
		chunks:    make(map[string]chunkStats),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// SetConstants updates k1 and b. Invalid values are ignored so a hot
// reload cannot corrupt the scorer.
func (ix *Index) SetConstants(k1, b float64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if k1 > 0 {
		ix.k1 = k1
	}
	if b >= 0 && b <= 1 {
		ix.b = b
	}
}

// Add indexes a chunk's text. Re-adding an existing chunk ID replaces
// its previous contribution.
func (ix *Index) Add(_ context.Context, chunk domain.Chunk) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if _, exists := ix.chunks[chunk.ID]; exists {
		ix.removeLocked(chunk.ID)
	}

	terms := ix.tokenizer.Tokenize(chunk.Content)
	freqs := make(map[string]int, len(terms))
	for _, term := range terms {
		freqs[term]++
	}

	for term, freq := range freqs {
		ix.postings[term] = append(ix.postings[term], posting{chunkID: chunk.ID, freq: freq})
	}

	ix.chunks[chunk.ID] = chunkStats{
		documentID: chunk.DocumentID,
		length:     len(terms),
		termFreqs:  freqs,
		order:      ix.nextOrder,
	}
	ix.nextOrder++
	ix.totalLength += len(terms)
	return nil
}

// Remove deletes a chunk and reverses its statistics contribution.
// Removing an unknown chunk is a no-op.
func (ix *Index) Remove(_ context.Context, chunkID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(chunkID)
	return nil
}

func (ix *Index) removeLocked(chunkID string) {
	stats, ok := ix.chunks[chunkID]
	if !ok {
		return
	}

	for term := range stats.termFreqs {
		list := ix.postings[term]
		for i := range list {
			if list[i].chunkID == chunkID {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(ix.postings, term)
		} else {
			ix.postings[term] = list
		}
	}

	ix.totalLength -= stats.length
	delete(ix.chunks, chunkID)
}

// Search ranks chunks against the query using BM25. An empty query or
// empty index returns an empty list. A non-empty documentID restricts
// candidates to that document before scoring.
func (ix *Index) Search(_ context.Context, query string, limit int, documentID string) ([]driven.LexicalHit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	terms := ix.tokenizer.Tokenize(query)
	if len(terms) == 0 || len(ix.chunks) == 0 || limit <= 0 {
		return []driven.LexicalHit{}, nil
	}

	n := float64(len(ix.chunks))
	avgdl := float64(ix.totalLength) / n

	scores := make(map[string]float64)
	for _, term := range terms {
		list, ok := ix.postings[term]
		if !ok {
			continue
		}

		df := float64(len(list))
		idf := math.Log((n-df+0.5)/(df+0.5) + 1)
		if idf < idfFloor {
			idf = idfFloor
		}

		for _, p := range list {
			stats := ix.chunks[p.chunkID]
			if documentID != "" && stats.documentID != documentID {
				continue
			}
			tf := float64(p.freq)
			dl := float64(stats.length)
			denom := tf + ix.k1*(1-ix.b+ix.b*dl/avgdl)
			scores[p.chunkID] += idf * (tf * (ix.k1 + 1)) / denom
		}
	}

	hits := make([]driven.LexicalHit, 0, len(scores))
	for chunkID, score := range scores {
		hits = append(hits, driven.LexicalHit{ChunkID: chunkID, Score: score})
	}

	// Ties break by insertion order for determinism.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return ix.chunks[hits[i].ChunkID].order < ix.chunks[hits[j].ChunkID].order
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Stats reports the aggregate corpus statistics.
func (ix *Index) Stats() driven.LexicalStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return driven.LexicalStats{
		ChunkCount:  len(ix.chunks),
		TermCount:   len(ix.postings),
		TotalLength: ix.totalLength,
	}
}

// Close releases resources. The in-memory index has none.
func (ix *Index) Close() error {
	return nil
}
