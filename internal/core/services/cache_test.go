package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askdoc/askdoc/internal/core/domain"
)

func TestAnswerCachePutGet(t *testing.T) {
	c := newAnswerCache(4)

	c.put("doc-1", "question?", domain.Answer{Text: "answer"})

	got, ok := c.get("doc-1", "question?")
	assert.True(t, ok)
	assert.Equal(t, "answer", got.Text)

	_, ok = c.get("doc-2", "question?")
	assert.False(t, ok)
	_, ok = c.get("doc-1", "other question?")
	assert.False(t, ok)
}

func TestAnswerCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newAnswerCache(2)

	c.put("doc-1", "q1", domain.Answer{Text: "a1"})
	c.put("doc-1", "q2", domain.Answer{Text: "a2"})

	// Touch q1 so q2 becomes the eviction candidate.
	_, ok := c.get("doc-1", "q1")
	assert.True(t, ok)

	c.put("doc-1", "q3", domain.Answer{Text: "a3"})

	_, ok = c.get("doc-1", "q1")
	assert.True(t, ok)
	_, ok = c.get("doc-1", "q2")
	assert.False(t, ok)
	_, ok = c.get("doc-1", "q3")
	assert.True(t, ok)
}

func TestAnswerCacheUpdateExisting(t *testing.T) {
	c := newAnswerCache(2)

	c.put("doc-1", "q", domain.Answer{Text: "old"})
	c.put("doc-1", "q", domain.Answer{Text: "new"})

	got, ok := c.get("doc-1", "q")
	assert.True(t, ok)
	assert.Equal(t, "new", got.Text)
	assert.Equal(t, 1, c.len())
}

func TestAnswerCacheInvalidateByDocument(t *testing.T) {
	c := newAnswerCache(8)

	c.put("doc-1", "q1", domain.Answer{})
	c.put("doc-1", "q2", domain.Answer{})
	c.put("doc-2", "q1", domain.Answer{})

	c.invalidate("doc-1")

	_, ok := c.get("doc-1", "q1")
	assert.False(t, ok)
	_, ok = c.get("doc-1", "q2")
	assert.False(t, ok)
	_, ok = c.get("doc-2", "q1")
	assert.True(t, ok)
}

func TestAnswerCacheInvalidateDropsUnscopedEntries(t *testing.T) {
	c := newAnswerCache(8)

	c.put("", "corpus-wide question", domain.Answer{})
	c.put("doc-2", "q", domain.Answer{})

	c.invalidate("doc-1")

	_, ok := c.get("", "corpus-wide question")
	assert.False(t, ok)
	_, ok = c.get("doc-2", "q")
	assert.True(t, ok)
}

func TestAnswerCacheBounded(t *testing.T) {
	c := newAnswerCache(8)

	for i := 0; i < 100; i++ {
		c.put("doc-1", fmt.Sprintf("q%d", i), domain.Answer{})
	}
	assert.Equal(t, 8, c.len())
}
