// Package config loads the TOML configuration file and watches it for
// retrieval tuning changes at runtime.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/askdoc/askdoc/internal/core/domain"
)

// DefaultFileName is the config file name inside the config directory.
const DefaultFileName = "config.toml"

// Config is the full application configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Generator GeneratorConfig `toml:"generator"`
	Vector    VectorConfig    `toml:"vector"`
	Tuning    TuningConfig    `toml:"tuning"`
}

// StorageConfig selects the document store backend.
type StorageConfig struct {
	// Backend is "sqlite" or "memory" (default: sqlite).
	Backend string `toml:"backend"`

	// DataDir is where the database lives (default: ~/.askdoc/data).
	DataDir string `toml:"data_dir"`
}

// EmbeddingConfig selects the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama", "openai", or "none" (default: ollama).
	// With "none", documents are indexed lexical-only.
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's API endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// Dimensions overrides the embedding vector size.
	Dimensions int `toml:"dimensions"`

	// APIKeyEnv names the environment variable holding the API key
	// (default: OPENAI_API_KEY for the openai provider). Keys never
	// live in the config file itself.
	APIKeyEnv string `toml:"api_key_env"`
}

// GeneratorConfig selects the answer generation provider.
type GeneratorConfig struct {
	// Provider is "ollama", "openai", "anthropic", or "none"
	// (default: ollama). With "none", answers fall back to extracted
	// passages.
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's API endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the generation model name.
	Model string `toml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`

	// RequestsPerMinute throttles hosted providers. Zero uses the
	// provider default.
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// VectorConfig selects the vector index backend.
type VectorConfig struct {
	// Backend is "memory" or "pgvector" (default: memory).
	Backend string `toml:"backend"`

	// ConnStringEnv names the environment variable holding the
	// PostgreSQL connection string for the pgvector backend
	// (default: ASKDOC_DATABASE_URL).
	ConnStringEnv string `toml:"conn_string_env"`

	// TableName is the pgvector table (default: chunk_embeddings).
	TableName string `toml:"table_name"`
}

// TuningConfig carries retrieval and chunking parameters. Zero values
// fall back to the built-in defaults.
type TuningConfig struct {
	Alpha           *float64 `toml:"alpha"`
	BM25K1          *float64 `toml:"bm25_k1"`
	BM25B           *float64 `toml:"bm25_b"`
	TopK            int      `toml:"top_k"`
	OverfetchFactor int      `toml:"overfetch_factor"`
	MaxHistoryTurns int      `toml:"max_history_turns"`
	MaxSessions     int      `toml:"max_sessions"`
	ChunkSize       int      `toml:"chunk_size"`
	ChunkOverlap    int      `toml:"chunk_overlap"`
}

// DefaultDir returns the default config directory, ~/.askdoc.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".askdoc"), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Storage:   StorageConfig{Backend: "sqlite"},
		Embedding: EmbeddingConfig{Provider: "ollama"},
		Generator: GeneratorConfig{Provider: "ollama"},
		Vector:    VectorConfig{Backend: "memory"},
	}
}

// Load reads the config file at path. A missing file yields the
// defaults, not an error, so a fresh install works without setup.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating the directory if
// needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// DomainTuning converts the file representation to domain tuning,
// filling unset fields with the defaults.
func (t TuningConfig) DomainTuning() domain.Tuning {
	tuning := domain.DefaultTuning()
	if t.Alpha != nil {
		tuning.Alpha = *t.Alpha
	}
	if t.BM25K1 != nil {
		tuning.BM25K1 = *t.BM25K1
	}
	if t.BM25B != nil {
		tuning.BM25B = *t.BM25B
	}
	if t.TopK > 0 {
		tuning.TopK = t.TopK
	}
	if t.OverfetchFactor > 0 {
		tuning.OverfetchFactor = t.OverfetchFactor
	}
	return tuning
}

// APIKey resolves the embedding provider's API key from the
// environment.
func (e EmbeddingConfig) APIKey() string {
	name := e.APIKeyEnv
	if name == "" {
		name = "OPENAI_API_KEY"
	}
	return os.Getenv(name)
}

// APIKey resolves the generator provider's API key from the
// environment.
func (g GeneratorConfig) APIKey() string {
	name := g.APIKeyEnv
	if name == "" {
		switch g.Provider {
		case "anthropic":
			name = "ANTHROPIC_API_KEY"
		default:
			name = "OPENAI_API_KEY"
		}
	}
	return os.Getenv(name)
}

// ConnString resolves the pgvector connection string from the
// environment.
func (v VectorConfig) ConnString() string {
	name := v.ConnStringEnv
	if name == "" {
		name = "ASKDOC_DATABASE_URL"
	}
	return os.Getenv(name)
}
