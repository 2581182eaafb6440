// Package cli implements the askdoc command line interface.
package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/askdoc/askdoc/internal/adapters/driven/ai"
	"github.com/askdoc/askdoc/internal/adapters/driven/storage/memory"
	"github.com/askdoc/askdoc/internal/adapters/driven/storage/sqlite"
	"github.com/askdoc/askdoc/internal/chunker"
	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
	"github.com/askdoc/askdoc/internal/core/ports/driving"
	"github.com/askdoc/askdoc/internal/core/services"
	"github.com/askdoc/askdoc/internal/index/lexical"
	"github.com/askdoc/askdoc/internal/logger"
	sessionmem "github.com/askdoc/askdoc/internal/memory"
	"github.com/askdoc/askdoc/internal/synthesis"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	verbose   bool
	configDir string
)

// Services wired at startup. Tests replace these with mocks.
var (
	indexerService driving.Indexer
	queryService   driving.QueryService
)

// closers are shut down after the command finishes.
var closers []func() error

var rootCmd = &cobra.Command{
	Use:   "askdoc",
	Short: "Ask questions about your documents",
	Long: `askdoc indexes text documents into a hybrid keyword and semantic
search index, then answers natural-language questions about them with
page-level citations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if indexerService != nil {
			// Already wired (tests).
			return nil
		}
		return wireServices()
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return shutdown()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.askdoc)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// wireServices builds the full service graph from the config file.
func wireServices() error {
	dir := configDir
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			return err
		}
	}
	cfgPath := filepath.Join(dir, config.DefaultFileName)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	docStore, err := buildDocStore(cfg)
	if err != nil {
		return err
	}

	providers, err := ai.Build(context.Background(), cfg)
	if err != nil {
		return err
	}
	closers = append(closers, providers.Close)
	for _, w := range providers.Warnings {
		logger.Warn("%s", w)
	}

	tuning := cfg.Tuning.DomainTuning()
	lexicalIndex := lexical.New(
		lexical.WithK1(tuning.BM25K1),
		lexical.WithB(tuning.BM25B),
	)

	chunkOpts := []chunker.Option{}
	if cfg.Tuning.ChunkSize > 0 {
		chunkOpts = append(chunkOpts, chunker.WithChunkSize(cfg.Tuning.ChunkSize))
	}
	if cfg.Tuning.ChunkOverlap > 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlap(cfg.Tuning.ChunkOverlap))
	}
	splitter := chunker.New(chunkOpts...)

	indexer := services.NewIndexerService(docStore, lexicalIndex,
		providers.VectorIndex, providers.Embedder, splitter)

	retriever := services.NewRetrieverService(docStore, lexicalIndex,
		providers.VectorIndex, providers.Embedder)
	if err := retriever.SetTuning(tuning); err != nil {
		return fmt.Errorf("invalid tuning in %s: %w", cfgPath, err)
	}

	memOpts := []sessionmem.Option{}
	if cfg.Tuning.MaxSessions > 0 {
		memOpts = append(memOpts, sessionmem.WithMaxSessions(cfg.Tuning.MaxSessions))
	}
	conversations := sessionmem.New(memOpts...)

	queryOpts := []services.QueryOption{}
	if cfg.Tuning.MaxHistoryTurns > 0 {
		queryOpts = append(queryOpts, services.WithMaxHistoryTurns(cfg.Tuning.MaxHistoryTurns))
	}
	query := services.NewQueryService(docStore, retriever, conversations,
		synthesis.New(providers.Generator), queryOpts...)

	indexer.SetInvalidationHook(query.InvalidateDocument)

	// The lexical and vector indexes live in process memory, so every
	// invocation starts with them empty. Repopulate from the persisted
	// chunks before serving commands; stored embeddings are reused.
	if err := indexer.Rebuild(context.Background()); err != nil {
		return fmt.Errorf("rebuilding indexes: %w", err)
	}

	// Tuning edits in the config file take effect without a restart.
	watcher, err := config.Watch(cfgPath, retriever.SetTuning)
	if err != nil {
		logger.Warn("Config watcher disabled: %v", err)
	} else {
		closers = append(closers, watcher.Close)
	}

	indexerService = indexer
	queryService = query
	return nil
}

func buildDocStore(cfg config.Config) (driven.DocumentStore, error) {
	switch cfg.Storage.Backend {
	case "", "sqlite":
		store, err := sqlite.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening document store: %w", err)
		}
		closers = append(closers, store.Close)
		return store, nil
	case "memory":
		return memory.NewDocumentStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func shutdown() error {
	var firstErr error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	closers = nil
	return firstErr
}
