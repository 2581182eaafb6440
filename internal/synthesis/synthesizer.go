// Package synthesis assembles generation prompts from retrieved context
// and conversation history, and wraps the external generator call with a
// timeout. The core's responsibility ends at prompt assembly and
// response pass-through.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
	"github.com/askdoc/askdoc/internal/logger"
)

// Default generation settings.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxTokens   = 800
	DefaultTemperature = 0.0
)

// FallbackAnswer is returned to the user when generation fails; the
// retrieval result itself is still valid.
const FallbackAnswer = "The answer could not be generated right now. Please try again."

// Synthesizer turns retrieved context, history, and a question into a
// single generation request.
type Synthesizer struct {
	generator driven.Generator
	timeout   time.Duration
	opts      driven.GenerateOptions
}

// Option configures the synthesizer.
type Option func(*Synthesizer)

// WithTimeout sets the generation timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxTokens caps the generated answer length.
func WithMaxTokens(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.opts.MaxTokens = n
		}
	}
}

// New creates a synthesizer. The generator may be nil, in which case
// Synthesize reports domain.ErrGeneratorUnavailable.
func New(generator driven.Generator, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		generator: generator,
		timeout:   DefaultTimeout,
		opts: driven.GenerateOptions{
			MaxTokens:   DefaultMaxTokens,
			Temperature: DefaultTemperature,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Available reports whether a generator is configured.
func (s *Synthesizer) Available() bool {
	return s.generator != nil
}

// Synthesize builds the prompt and calls the generator under the
// configured timeout. Cancellation of ctx is honoured before the call
// is made, so an already-disconnected caller is never billed for a
// generation.
func (s *Synthesizer) Synthesize(
	ctx context.Context,
	question string,
	retrieved []domain.RetrievedChunk,
	history []domain.Turn,
) (string, error) {
	if s.generator == nil {
		return "", domain.ErrGeneratorUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt := BuildPrompt(question, retrieved, history)
	logger.Debug("Synthesis prompt: %d chars, %d passages, %d history turns",
		len(prompt), len(retrieved), len(history))

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	answer, err := s.generator.Generate(genCtx, prompt, s.opts)
	if err != nil {
		logger.Warn("Generation failed after %v: %v", time.Since(start), err)
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrGeneratorUnavailable, err)
	}

	logger.Debug("Generation took %v (model %s)", time.Since(start), s.generator.ModelName())
	return answer, nil
}
