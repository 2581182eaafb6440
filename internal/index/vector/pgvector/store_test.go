package pgvector

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests require a Postgres instance with the pgvector
// extension. Set ASKDOC_TEST_DATABASE_URL to run them.
func testIndex(t *testing.T) *Index {
	t.Helper()
	connString := os.Getenv("ASKDOC_TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("ASKDOC_TEST_DATABASE_URL not set; skipping pgvector integration test")
	}

	ix, err := New(context.Background(), Config{
		ConnString: connString,
		TableName:  "chunk_embeddings_test",
		VectorDim:  3,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = ix.pool.Exec(context.Background(), "DROP TABLE IF EXISTS chunk_embeddings_test")
		ix.Close()
	})
	return ix
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{ConnString: "postgres://localhost/x"})
	assert.Error(t, err)
}

func TestIndex_AddSearchRemove(t *testing.T) {
	ix := testIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.Add(ctx, "c1", "d1", []float32{1, 0, 0}))
	require.NoError(t, ix.Add(ctx, "c2", "d1", []float32{0, 1, 0}))
	require.NoError(t, ix.Add(ctx, "c3", "d2", []float32{1, 0, 0}))
	assert.Equal(t, 3, ix.Len())

	hits, err := ix.Search(ctx, []float32{1, 0, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].ChunkID)

	hits, err = ix.Search(ctx, []float32{1, 0, 0}, 5, "d2")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c3", hits[0].ChunkID)

	require.NoError(t, ix.Remove(ctx, "c1"))
	assert.Equal(t, 2, ix.Len())
}
