// Package pgvector provides a Postgres-backed VectorIndex using the
// pgvector extension. It is a drop-in substitute for the in-memory
// brute-force index when the corpus outgrows a linear scan: the ivfflat
// index gives approximate nearest-neighbour search behind the same port.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvec "github.com/pgvector/pgvector-go"

	"github.com/askdoc/askdoc/internal/core/domain"
	"github.com/askdoc/askdoc/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Config holds connection settings for the pgvector index.
type Config struct {
	// ConnString is the Postgres connection string (required).
	ConnString string

	// TableName is the embeddings table (default: chunk_embeddings).
	TableName string

	// VectorDim is the embedding dimension (required).
	VectorDim int
}

// Index stores chunk embeddings in Postgres with pgvector.
type Index struct {
	pool  *pgxpool.Pool
	table string
	dim   int
}

// New connects to Postgres, ensures the vector extension, table and
// ivfflat index exist, and returns the index.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.ConnString == "" {
		return nil, fmt.Errorf("pgvector: connection string is required")
	}
	if cfg.VectorDim <= 0 {
		return nil, fmt.Errorf("pgvector: vector dimension is required")
	}
	if cfg.TableName == "" {
		cfg.TableName = "chunk_embeddings"
	}

	pool, err := pgxpool.New(ctx, cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	ix := &Index{pool: pool, table: cfg.TableName, dim: cfg.VectorDim}
	if err := ix.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return ix, nil
}

func (ix *Index) initialize(ctx context.Context) error {
	if _, err := ix.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			chunk_id    TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			seq         BIGSERIAL,
			embedding   vector(%d)
		)`, ix.table, ix.dim)
	if _, err := ix.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`, ix.table, ix.table)
	if _, err := ix.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	createScopeIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_document_idx
		ON %s (document_id)`, ix.table, ix.table)
	if _, err := ix.pool.Exec(ctx, createScopeIndex); err != nil {
		return fmt.Errorf("create scope index: %w", err)
	}

	return nil
}

// Add upserts an embedding for the chunk.
func (ix *Index) Add(ctx context.Context, chunkID, documentID string, embedding []float32) error {
	if len(embedding) != ix.dim {
		return domain.ErrDimensionMismatch
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (chunk_id, document_id, embedding)
		VALUES ($1, $2, $3)
		ON CONFLICT (chunk_id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			embedding = EXCLUDED.embedding`, ix.table)

	if _, err := ix.pool.Exec(ctx, stmt, chunkID, documentID, pgvec.NewVector(embedding)); err != nil {
		return fmt.Errorf("insert embedding: %w", err)
	}
	return nil
}

// Remove deletes a chunk's embedding. Unknown chunk IDs are a no-op.
func (ix *Index) Remove(ctx context.Context, chunkID string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE chunk_id = $1", ix.table)
	if _, err := ix.pool.Exec(ctx, stmt, chunkID); err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	return nil
}

// Search returns the k most similar chunks by cosine similarity.
// The seq column breaks ties by insertion order.
func (ix *Index) Search(ctx context.Context, query []float32, k int, documentID string) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != ix.dim {
		return nil, domain.ErrDimensionMismatch
	}

	var stmt string
	var args []any
	if documentID != "" {
		stmt = fmt.Sprintf(`
			SELECT chunk_id, 1 - (embedding <=> $1) AS similarity
			FROM %s
			WHERE document_id = $2
			ORDER BY embedding <=> $1, seq
			LIMIT $3`, ix.table)
		args = []any{pgvec.NewVector(query), documentID, k}
	} else {
		stmt = fmt.Sprintf(`
			SELECT chunk_id, 1 - (embedding <=> $1) AS similarity
			FROM %s
			ORDER BY embedding <=> $1, seq
			LIMIT $2`, ix.table)
		args = []any{pgvec.NewVector(query), k}
	}

	rows, err := ix.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("search embeddings: %w", err)
	}
	defer rows.Close()

	hits := make([]driven.VectorHit, 0, k)
	for rows.Next() {
		var hit driven.VectorHit
		if err := rows.Scan(&hit.ChunkID, &hit.Similarity); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hits: %w", err)
	}
	return hits, nil
}

// Len reports the number of stored vectors.
func (ix *Index) Len() int {
	var count int
	stmt := fmt.Sprintf("SELECT count(*) FROM %s", ix.table)
	if err := ix.pool.QueryRow(context.Background(), stmt).Scan(&count); err != nil {
		return 0
	}
	return count
}

// Close releases the connection pool.
func (ix *Index) Close() error {
	ix.pool.Close()
	return nil
}
