package services

import (
	"container/list"
	"sync"

	"github.com/askdoc/askdoc/internal/core/domain"
)

// defaultCacheSize bounds the number of cached answers.
const defaultCacheSize = 256

type cacheKey struct {
	documentID string
	question   string
}

type cacheEntry struct {
	key    cacheKey
	answer domain.Answer
}

// answerCache is a bounded LRU of synthesized answers. Entries are
// scoped to a document so indexing that document can evict exactly the
// answers it may have stale-dated; entries with an empty document scope
// are evicted on any index change.
type answerCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[cacheKey]*list.Element
}

func newAnswerCache(capacity int) *answerCache {
	if capacity <= 0 {
		capacity = defaultCacheSize
	}
	return &answerCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[cacheKey]*list.Element),
	}
}

func (c *answerCache) get(documentID, question string) (domain.Answer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[cacheKey{documentID: documentID, question: question}]
	if !ok {
		return domain.Answer{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).answer, true
}

func (c *answerCache) put(documentID, question string, answer domain.Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{documentID: documentID, question: question}
	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).answer = answer
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, answer: answer})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// invalidate drops all entries scoped to documentID, plus unscoped
// entries whose answers may span the changed document.
func (c *answerCache) invalidate(documentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		entry := elem.Value.(*cacheEntry)
		if entry.key.documentID == documentID || entry.key.documentID == "" {
			c.order.Remove(elem)
			delete(c.entries, entry.key)
		}
		elem = next
	}
}

func (c *answerCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
