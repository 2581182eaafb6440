package driven

import "context"

// Generator produces text completions from an external language model.
// It is the only component in the pipeline with an unbounded external
// dependency, so callers wrap it with an explicit timeout. When nil,
// queries return retrieved passages without a synthesized answer.
type Generator interface {
	// Generate produces a completion for the assembled prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}
