// Package vector provides an in-memory brute-force cosine similarity
// index over chunk embeddings. A linear scan is adequate for corpora in
// the low thousands of chunks; larger corpora can swap in an ANN-backed
// implementation of the same port without touching callers.
package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// entry is one stored vector. Vectors are unit-normalized at insertion
// so search is a plain dot product.
type entry struct {
	chunkID    string
	documentID string
	vec        []float32
	order      int
}

// Index is a brute-force vector index with cosine similarity.
type Index struct {
	mu        sync.RWMutex
	dim       int
	entries   []entry
	byChunkID map[string]int
	nextOrder int
}

// New creates an empty index for vectors of the given dimension.
// A dimension of zero lets the first Add fix the dimension.
func New(dim int) *Index {
	return &Index{
		dim:       dim,
		byChunkID: make(map[string]int),
	}
}

// Add inserts an embedding for the chunk. Re-adding a chunk ID replaces
// its vector. Returns domain.ErrDimensionMismatch when the embedding
// disagrees with the index dimension.
func (ix *Index) Add(_ context.Context, chunkID, documentID string, embedding []float32) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.dim == 0 {
		ix.dim = len(embedding)
	}
	if len(embedding) != ix.dim || ix.dim == 0 {
		return domain.ErrDimensionMismatch
	}

	e := entry{
		chunkID:    chunkID,
		documentID: documentID,
		vec:        normalize(embedding),
		order:      ix.nextOrder,
	}
	ix.nextOrder++

	if pos, exists := ix.byChunkID[chunkID]; exists {
		e.order = ix.entries[pos].order
		ix.entries[pos] = e
		return nil
	}

	ix.byChunkID[chunkID] = len(ix.entries)
	ix.entries = append(ix.entries, e)
	return nil
}

// Remove deletes a chunk's embedding. Unknown chunk IDs are a no-op.
func (ix *Index) Remove(_ context.Context, chunkID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	pos, ok := ix.byChunkID[chunkID]
	if !ok {
		return nil
	}

	last := len(ix.entries) - 1
	if pos != last {
		ix.entries[pos] = ix.entries[last]
		ix.byChunkID[ix.entries[pos].chunkID] = pos
	}
	ix.entries = ix.entries[:last]
	delete(ix.byChunkID, chunkID)
	return nil
}

// Search returns the k most similar chunks by cosine similarity.
// Ties break by insertion order, earliest first. An empty index or a
// zero query yields an empty result.
func (ix *Index) Search(_ context.Context, query []float32, k int, documentID string) ([]driven.VectorHit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.entries) == 0 || k <= 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != ix.dim {
		return nil, domain.ErrDimensionMismatch
	}

	q := normalize(query)
	if q == nil {
		return []driven.VectorHit{}, nil
	}

	type scored struct {
		entry *entry
		sim   float64
	}
	candidates := make([]scored, 0, len(ix.entries))
	for i := range ix.entries {
		e := &ix.entries[i]
		if e.vec == nil {
			// Zero vectors have no direction to compare against.
			continue
		}
		if documentID != "" && e.documentID != documentID {
			continue
		}
		candidates = append(candidates, scored{entry: e, sim: dot(q, e.vec)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].sim != candidates[j].sim {
			return candidates[i].sim > candidates[j].sim
		}
		return candidates[i].entry.order < candidates[j].entry.order
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	hits := make([]driven.VectorHit, k)
	for i := 0; i < k; i++ {
		hits[i] = driven.VectorHit{
			ChunkID:    candidates[i].entry.chunkID,
			Similarity: candidates[i].sim,
		}
	}
	return hits, nil
}

// Len reports the number of stored vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Close releases resources. The in-memory index has none.
func (ix *Index) Close() error {
	return nil
}

// normalize returns a unit-length copy of v, or nil for a zero vector.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	mag := math.Sqrt(sum)
	if mag == 0 {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / mag)
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
