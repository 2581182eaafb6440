// Package chunker splits extracted document text into overlapping
// passages with position and page metadata.
package chunker

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/askdoc/askdoc/internal/core/domain"
)

// DefaultChunkSize is the default number of runes per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping runes.
const DefaultChunkOverlap = 200

// boundaryWindow is how far back from a cut point the chunker looks for
// a word boundary before falling back to a hard cut.
const boundaryWindow = 32

// PageSeparator joins per-page text into a single document string.
// PDF text extractors emit one string per page; the indexer joins them
// with this rune so chunk offsets can be mapped back to page numbers.
const PageSeparator = '\f'

// Chunker splits document content into fixed-size overlapping chunks.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in runes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in runes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkID derives the deterministic chunk identifier for a document
// position. Same document and position always produce the same ID, which
// keeps re-indexing and test fixtures reproducible.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s#%04d", documentID, position)
}

// Split chunks the document text. Empty or whitespace-only input
// produces no chunks. Offsets are rune offsets into text; Page is the
// 1-based page the chunk starts on, derived from form-feed separators.
func (c *Chunker) Split(documentID, text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)
	pageStarts := pageStartOffsets(runes)

	step := c.chunkSize - c.overlap
	if step <= 0 {
		step = c.chunkSize
	}

	chunks := make([]domain.Chunk, 0, total/step+1)
	position := 0
	start := 0

	for start < total {
		end := start + c.chunkSize
		if end >= total {
			end = total
		} else {
			end = boundaryBefore(runes, end)
			if end <= start {
				// Boundary lookback reached back past the chunk start;
				// keep the hard cut so the chunk is never empty.
				end = start + c.chunkSize
			}
		}

		content := string(runes[start:end])
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, domain.Chunk{
				ID:          ChunkID(documentID, position),
				DocumentID:  documentID,
				Position:    position,
				Content:     content,
				StartOffset: start,
				EndOffset:   end,
				Page:        pageAt(pageStarts, start),
			})
			position++
		}

		if end == total {
			break
		}

		next := end - c.overlap
		if next <= start {
			// The overlap reaches back past a boundary-shortened cut.
			// Resume at the cut itself so no runes are skipped.
			next = end
		}
		start = next
	}

	return chunks
}

// boundaryBefore moves a cut point back to the nearest word boundary
// within the lookback window. Degenerate input with no boundary in the
// window keeps the hard cut.
func boundaryBefore(runes []rune, cut int) int {
	limit := cut - boundaryWindow
	if limit < 1 {
		limit = 1
	}
	for i := cut; i > limit; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return cut
}

// pageStartOffsets returns the rune offset at which each page begins.
// Page 1 starts at offset 0; each form feed starts the next page.
func pageStartOffsets(runes []rune) []int {
	starts := []int{0}
	for i, r := range runes {
		if r == PageSeparator {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// pageAt returns the 1-based page number containing the rune offset.
func pageAt(pageStarts []int, offset int) int {
	page := 1
	for i, s := range pageStarts {
		if offset >= s {
			page = i + 1
		} else {
			break
		}
	}
	return page
}

// PageCount reports how many pages the joined text contains.
func PageCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, string(PageSeparator)) + 1
}

// JoinPages assembles per-page text into the single string Split expects.
func JoinPages(pages []string) string {
	return strings.Join(pages, string(PageSeparator))
}
