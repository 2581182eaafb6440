package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
	"github.com/askdoc/askdoc/internal/core/ports/driving"
	"github.com/askdoc/askdoc/internal/logger"
	"github.com/askdoc/askdoc/internal/synthesis"
)

// snippetLength caps citation snippets pulled from chunk content.
const snippetLength = 160

// QueryService answers questions over indexed documents. It chains
// retrieval, conversation history, and answer synthesis, and caches
// synthesized answers for stateless repeat questions.
type QueryService struct {
	docStore    driven.DocumentStore
	retriever   *RetrieverService
	memory      driven.ConversationMemory
	synthesizer *synthesis.Synthesizer
	cache       *answerCache

	maxHistoryTurns int
}

var _ driving.QueryService = (*QueryService)(nil)

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithMaxHistoryTurns bounds how many past turns are fed to synthesis.
func WithMaxHistoryTurns(n int) QueryOption {
	return func(s *QueryService) {
		if n > 0 {
			s.maxHistoryTurns = n
		}
	}
}

// WithAnswerCacheSize bounds the answer cache.
func WithAnswerCacheSize(n int) QueryOption {
	return func(s *QueryService) {
		s.cache = newAnswerCache(n)
	}
}

// NewQueryService creates a query service. The synthesizer may wrap a
// nil generator, in which case answers fall back to extracted passages.
func NewQueryService(
	docStore driven.DocumentStore,
	retriever *RetrieverService,
	memory driven.ConversationMemory,
	synthesizer *synthesis.Synthesizer,
	opts ...QueryOption,
) *QueryService {
	s := &QueryService{
		docStore:        docStore,
		retriever:       retriever,
		memory:          memory,
		synthesizer:     synthesizer,
		cache:           newAnswerCache(defaultCacheSize),
		maxHistoryTurns: domain.DefaultMaxHistoryTurns,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InvalidateDocument evicts cached answers affected by a change to the
// given document. Wired as the indexer's invalidation hook.
func (s *QueryService) InvalidateDocument(documentID string) {
	s.cache.invalidate(documentID)
}

// Ask answers a question, optionally scoped to one document and
// threaded through a conversation session.
func (s *QueryService) Ask(
	ctx context.Context, documentID, sessionID, question string,
) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	if documentID != "" {
		doc, err := s.docStore.GetDocument(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if doc.State != domain.StateIndexed {
			return nil, fmt.Errorf("%w: document %s is %s",
				domain.ErrDocumentNotReady, doc.ID, doc.State)
		}
	}

	// History makes an answer session-specific, so only stateless asks
	// hit the cache.
	cacheable := sessionID == ""
	if cacheable {
		if answer, ok := s.cache.get(documentID, question); ok {
			logger.Debug("Answer cache hit for %q", question)
			answer.FromCache = true
			return &answer, nil
		}
	}

	retrieved, err := s.retriever.Retrieve(ctx, question, domain.QueryOptions{
		DocumentID: documentID,
	})
	if err != nil {
		return nil, err
	}

	var history []domain.Turn
	if sessionID != "" && s.memory != nil {
		history = s.memory.History(sessionID, s.maxHistoryTurns)
	}

	text, err := s.synthesize(ctx, question, retrieved, history)
	if err != nil {
		return nil, err
	}

	answer := domain.Answer{
		Text:      text,
		Citations: citations(retrieved),
		SessionID: sessionID,
	}

	if sessionID != "" && s.memory != nil {
		s.memory.Append(sessionID, domain.Turn{
			Question:   question,
			Answer:     answer.Text,
			DocumentID: documentID,
			AskedAt:    time.Now(),
		})
	}
	if cacheable {
		s.cache.put(documentID, question, answer)
	}
	return &answer, nil
}

// synthesize produces the answer text, falling back to an extractive
// summary when no generator is configured or generation fails.
func (s *QueryService) synthesize(
	ctx context.Context,
	question string,
	retrieved []domain.RetrievedChunk,
	history []domain.Turn,
) (string, error) {
	if s.synthesizer == nil || !s.synthesizer.Available() {
		logger.Debug("No generator configured, returning extracted passages")
		return extractiveAnswer(retrieved), nil
	}

	text, err := s.synthesizer.Synthesize(ctx, question, retrieved, history)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		logger.Warn("Synthesis failed, returning extracted passages: %v", err)
		return extractiveAnswer(retrieved), nil
	}
	return text, nil
}

// Retrieve exposes raw hybrid retrieval without synthesis.
func (s *QueryService) Retrieve(
	ctx context.Context, question string, opts domain.QueryOptions,
) ([]domain.RetrievedChunk, error) {
	return s.retriever.Retrieve(ctx, question, opts)
}

// ResetSession clears one conversation's history.
func (s *QueryService) ResetSession(sessionID string) {
	if s.memory != nil {
		s.memory.Reset(sessionID)
	}
}

// citations maps retrieved chunks to source references.
func citations(retrieved []domain.RetrievedChunk) []domain.Citation {
	out := make([]domain.Citation, 0, len(retrieved))
	for _, rc := range retrieved {
		out = append(out, domain.Citation{
			DocumentID: rc.Chunk.DocumentID,
			ChunkID:    rc.Chunk.ID,
			Page:       rc.Chunk.Page,
			Snippet:    snippet(rc),
		})
	}
	return out
}

// snippet prefers a query highlight and falls back to the chunk head.
func snippet(rc domain.RetrievedChunk) string {
	text := rc.Chunk.Content
	if len(rc.Highlights) > 0 {
		text = rc.Highlights[0]
	}
	runes := []rune(strings.TrimSpace(text))
	if len(runes) > snippetLength {
		return string(runes[:snippetLength]) + "..."
	}
	return string(runes)
}

// extractiveAnswer joins the best passages when generation is not
// possible so the user still gets grounded material.
func extractiveAnswer(retrieved []domain.RetrievedChunk) string {
	if len(retrieved) == 0 {
		return "No relevant passages were found in the document."
	}

	var b strings.Builder
	b.WriteString("Answer generation is unavailable; most relevant passages:\n")
	limit := len(retrieved)
	if limit > 3 {
		limit = 3
	}
	for i := 0; i < limit; i++ {
		rc := retrieved[i]
		b.WriteString(fmt.Sprintf("\n[p.%d] %s\n", rc.Chunk.Page, snippet(rc)))
	}
	return b.String()
}
