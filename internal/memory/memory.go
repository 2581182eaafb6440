// Package memory provides bounded per-session conversation history.
// Sessions are created lazily, turns accumulate oldest-first, and when
// the configured session cap is exceeded the least-recently-used session
// is evicted in full.
package memory

import (
	"container/list"
	"sync"
	"time"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ConversationMemory = (*Store)(nil)

// Store holds session histories with LRU eviction of whole sessions.
type Store struct {
	mu          sync.Mutex
	maxSessions int
	sessions    map[string]*list.Element
	lru         *list.List // front = most recently used

	// now is swappable for tests.
	now func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithMaxSessions sets how many sessions are retained simultaneously.
func WithMaxSessions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// New creates an empty session store.
func New(opts ...Option) *Store {
	s := &Store{
		maxSessions: domain.DefaultMaxSessions,
		sessions:    make(map[string]*list.Element),
		lru:         list.New(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append records a turn for the session, creating it lazily. Appends on
// the same session are serialized in arrival order by the store lock.
func (s *Store) Append(sessionID string, turn domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.AskedAt.IsZero() {
		turn.AskedAt = s.now()
	}

	sess := s.touchLocked(sessionID)
	sess.Turns = append(sess.Turns, turn)
	sess.LastActive = s.now()
	s.evictLocked()
}

// History returns the most recent maxTurns turns, oldest first.
// Reading counts as use for eviction purposes.
func (s *Store) History(sessionID string, maxTurns int) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.sessions[sessionID]
	if !ok || maxTurns <= 0 {
		return nil
	}
	s.lru.MoveToFront(elem)
	sess := elem.Value.(*domain.Session)
	sess.LastActive = s.now()

	turns := sess.Turns
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

// Reset clears a session's history without affecting other sessions.
// A subsequent Append starts a fresh sequence.
func (s *Store) Reset(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.sessions[sessionID]; ok {
		s.lru.Remove(elem)
		delete(s.sessions, sessionID)
	}
}

// Len reports the number of retained sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// touchLocked returns the session, creating it at the front of the LRU
// list if needed.
func (s *Store) touchLocked(sessionID string) *domain.Session {
	if elem, ok := s.sessions[sessionID]; ok {
		s.lru.MoveToFront(elem)
		return elem.Value.(*domain.Session)
	}
	sess := &domain.Session{ID: sessionID, LastActive: s.now()}
	s.sessions[sessionID] = s.lru.PushFront(sess)
	return sess
}

// evictLocked drops least-recently-used sessions beyond the cap.
func (s *Store) evictLocked() {
	for len(s.sessions) > s.maxSessions {
		oldest := s.lru.Back()
		if oldest == nil {
			return
		}
		s.lru.Remove(oldest)
		delete(s.sessions, oldest.Value.(*domain.Session).ID)
	}
}
