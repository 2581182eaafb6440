package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
)

// mockGenerator implements driven.Generator for testing.
type mockGenerator struct {
	answer     string
	err        error
	delay      time.Duration
	lastPrompt string
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.lastPrompt = prompt
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockGenerator) ModelName() string { return "mock-llm" }
func (m *mockGenerator) Close() error      { return nil }

func retrievedChunk(page int, content string) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		Chunk: domain.Chunk{ID: "c1", DocumentID: "d1", Page: page, Content: content},
		Score: 0.9,
	}
}

func TestBuildPrompt_TagsPages(t *testing.T) {
	prompt := BuildPrompt("What is the deductible?",
		[]domain.RetrievedChunk{
			retrievedChunk(2, "The deductible is $500 per incident."),
			retrievedChunk(7, "Deductibles reset annually."),
		},
		nil,
	)

	assert.Contains(t, prompt, "(p.2) The deductible is $500 per incident.")
	assert.Contains(t, prompt, "(p.7) Deductibles reset annually.")
	assert.Contains(t, prompt, "Question: What is the deductible?")

	// Rank order is preserved.
	assert.Less(t, strings.Index(prompt, "p.2"), strings.Index(prompt, "p.7"))
}

func TestBuildPrompt_HistoryOldestFirst(t *testing.T) {
	prompt := BuildPrompt("And what about renewals?",
		[]domain.RetrievedChunk{retrievedChunk(1, "Renewal terms.")},
		[]domain.Turn{
			{Question: "first question", Answer: "first answer"},
			{Question: "second question", Answer: "second answer"},
		},
	)

	assert.Contains(t, prompt, "first question")
	assert.Contains(t, prompt, "second answer")
	assert.Less(t, strings.Index(prompt, "first question"), strings.Index(prompt, "second question"))
}

func TestBuildPrompt_EmptyRetrieval(t *testing.T) {
	prompt := BuildPrompt("Anything?", nil, nil)

	assert.Contains(t, prompt, "No relevant passages were found")
	assert.Contains(t, prompt, "Do not cite any pages")
	assert.NotContains(t, prompt, "(p.")
}

func TestSynthesize_PassesThroughAnswer(t *testing.T) {
	gen := &mockGenerator{answer: "The deductible is $500 (p.2)."}
	s := New(gen)

	answer, err := s.Synthesize(context.Background(), "What is the deductible?",
		[]domain.RetrievedChunk{retrievedChunk(2, "The deductible is $500.")}, nil)

	require.NoError(t, err)
	assert.Equal(t, "The deductible is $500 (p.2).", answer)
	assert.Contains(t, gen.lastPrompt, "What is the deductible?")
}

func TestSynthesize_NilGenerator(t *testing.T) {
	s := New(nil)
	assert.False(t, s.Available())

	_, err := s.Synthesize(context.Background(), "q", nil, nil)
	assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
}

func TestSynthesize_GeneratorError(t *testing.T) {
	s := New(&mockGenerator{err: errors.New("connection refused")})

	_, err := s.Synthesize(context.Background(), "q", nil, nil)
	assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
}

func TestSynthesize_Timeout(t *testing.T) {
	s := New(&mockGenerator{answer: "late", delay: 200 * time.Millisecond},
		WithTimeout(20*time.Millisecond))

	_, err := s.Synthesize(context.Background(), "q", nil, nil)
	assert.ErrorIs(t, err, domain.ErrGeneratorUnavailable)
}

func TestSynthesize_CancelledBeforeCall(t *testing.T) {
	gen := &mockGenerator{answer: "never"}
	s := New(gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Synthesize(ctx, "q", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.lastPrompt, "generator must not be called after cancellation")
}
