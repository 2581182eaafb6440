// Package ai builds the embedding, vector index, and generation adapters
// from configuration, degrading to lexical-only operation when a provider
// is unavailable or unconfigured.
package ai

import (
	"context"
	"fmt"

	"github.com/askdoc/askdoc/internal/adapters/driven/embedding/ollama"
	"github.com/askdoc/askdoc/internal/adapters/driven/embedding/openai"
	"github.com/askdoc/askdoc/internal/adapters/driven/llm/anthropic"
	llmollama "github.com/askdoc/askdoc/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/askdoc/askdoc/internal/adapters/driven/llm/openai"
	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
	"github.com/askdoc/askdoc/internal/index/vector"
	"github.com/askdoc/askdoc/internal/index/vector/pgvector"
)

// Providers holds the AI-backed adapters built from configuration. Any of
// the fields may be nil: a nil Embedder and VectorIndex mean lexical-only
// indexing, a nil Generator means extractive answers.
type Providers struct {
	Embedder    driven.EmbeddingService
	VectorIndex driven.VectorIndex
	Generator   driven.Generator

	// Warnings lists non-fatal issues that caused a fallback.
	Warnings []string

	closers []func() error
}

// Close releases every adapter that was built.
func (p *Providers) Close() error {
	var firstErr error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.closers = nil
	return firstErr
}

// Build constructs the embedding service, vector index, and generator the
// config names. Misconfigured optional providers degrade with a warning;
// an unreachable vector backend is an error because silently dropping the
// semantic half of the index would skew every later query.
func Build(ctx context.Context, cfg config.Config) (*Providers, error) {
	p := &Providers{}

	p.Embedder = p.buildEmbedder(cfg)
	if err := p.buildVectorIndex(ctx, cfg); err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Generator = p.buildGenerator(cfg)

	return p, nil
}

func (p *Providers) buildEmbedder(cfg config.Config) driven.EmbeddingService {
	switch cfg.Embedding.Provider {
	case "", "ollama":
		svc := ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		p.closers = append(p.closers, svc.Close)
		return svc
	case "openai":
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.Embedding.APIKey(),
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
		if err != nil {
			p.warnf("embedding disabled: %v", err)
			return nil
		}
		p.closers = append(p.closers, svc.Close)
		return svc
	case "none":
		return nil
	default:
		p.warnf("unknown embedding provider %q, indexing lexical-only", cfg.Embedding.Provider)
		return nil
	}
}

func (p *Providers) buildVectorIndex(ctx context.Context, cfg config.Config) error {
	if p.Embedder == nil {
		return nil
	}

	switch cfg.Vector.Backend {
	case "", "memory":
		idx := vector.New(p.Embedder.Dimensions())
		p.closers = append(p.closers, idx.Close)
		p.VectorIndex = idx
		return nil
	case "pgvector":
		idx, err := pgvector.New(ctx, pgvector.Config{
			ConnString: cfg.Vector.ConnString(),
			TableName:  cfg.Vector.TableName,
			VectorDim:  p.Embedder.Dimensions(),
		})
		if err != nil {
			return fmt.Errorf("opening pgvector index: %w", err)
		}
		p.closers = append(p.closers, idx.Close)
		p.VectorIndex = idx
		return nil
	default:
		return fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

func (p *Providers) buildGenerator(cfg config.Config) driven.Generator {
	switch cfg.Generator.Provider {
	case "", "ollama":
		gen, err := llmollama.NewGenerator(llmollama.Config{
			BaseURL: cfg.Generator.BaseURL,
			Model:   cfg.Generator.Model,
		})
		if err != nil {
			p.warnf("generation disabled: %v", err)
			return nil
		}
		p.closers = append(p.closers, gen.Close)
		return gen
	case "openai":
		gen, err := llmopenai.NewGenerator(llmopenai.Config{
			APIKey:            cfg.Generator.APIKey(),
			BaseURL:           cfg.Generator.BaseURL,
			Model:             cfg.Generator.Model,
			RequestsPerMinute: cfg.Generator.RequestsPerMinute,
		})
		if err != nil {
			p.warnf("generation disabled: %v", err)
			return nil
		}
		p.closers = append(p.closers, gen.Close)
		return gen
	case "anthropic":
		gen, err := anthropic.NewGenerator(anthropic.Config{
			APIKey:  cfg.Generator.APIKey(),
			BaseURL: cfg.Generator.BaseURL,
			Model:   cfg.Generator.Model,
		})
		if err != nil {
			p.warnf("generation disabled: %v", err)
			return nil
		}
		p.closers = append(p.closers, gen.Close)
		return gen
	case "none":
		return nil
	default:
		p.warnf("unknown generator provider %q, answers will be extractive", cfg.Generator.Provider)
		return nil
	}
}

func (p *Providers) warnf(format string, args ...any) {
	p.Warnings = append(p.Warnings, fmt.Sprintf(format, args...))
}
