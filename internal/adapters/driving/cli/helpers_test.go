package cli

import (
	"context"

	"github.com/askdoc/askdoc/internal/adapters/driven/storage/memory"
	"github.com/askdoc/askdoc/internal/chunker"
	"github.com/askdoc/askdoc/internal/core/services"
	"github.com/askdoc/askdoc/internal/index/lexical"
	sessionmem "github.com/askdoc/askdoc/internal/memory"
	"github.com/askdoc/askdoc/internal/synthesis"
)

// setupTestServices wires a lexical-only in-memory stack so commands
// run without external services. Returns a cleanup that unwires it.
func setupTestServices() func() {
	docStore := memory.NewDocumentStore()
	lexicalIndex := lexical.New()
	splitter := chunker.New(chunker.WithChunkSize(200), chunker.WithOverlap(40))

	indexer := services.NewIndexerService(docStore, lexicalIndex, nil, nil, splitter)
	retriever := services.NewRetrieverService(docStore, lexicalIndex, nil, nil)
	query := services.NewQueryService(docStore, retriever, sessionmem.New(), synthesis.New(nil))
	indexer.SetInvalidationHook(query.InvalidateDocument)

	indexerService = indexer
	queryService = query

	return func() {
		indexerService = nil
		queryService = nil
	}
}

// seedDocument indexes one document through the wired test services.
func seedDocument(id, title, text string) error {
	_, err := indexerService.IndexDocument(context.Background(), id, title, text)
	return err
}
