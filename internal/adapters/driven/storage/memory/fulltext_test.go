package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-labs/raglite/internal/core/domain"
)

func upsertText(t *testing.T, idx *FullTextIndex, chunkID, docID, content string) {
	t.Helper()
	require.NoError(t, idx.Upsert(context.Background(), domain.Chunk{
		ID:         chunkID,
		DocumentID: docID,
		Content:    content,
	}))
}

func TestFullTextIndex_RankedQuery(t *testing.T) {
	idx := NewFullTextIndex()
	ctx := context.Background()

	upsertText(t, idx, "c1", "d1", "fox and hound")
	upsertText(t, idx, "c2", "d1", "fox fox fox")
	upsertText(t, idx, "c3", "d2", "nothing relevant")

	hits, err := idx.Query(ctx, "fox", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c2", hits[0].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestFullTextIndex_QueryHonorsLimit(t *testing.T) {
	idx := NewFullTextIndex()
	ctx := context.Background()

	for _, id := range []string{"c1", "c2", "c3"} {
		upsertText(t, idx, id, "d1", "shared term")
	}

	hits, err := idx.Query(ctx, "shared", 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestFullTextIndex_EmptyQuery(t *testing.T) {
	idx := NewFullTextIndex()
	upsertText(t, idx, "c1", "d1", "some text")

	hits, err := idx.Query(context.Background(), "  !?  ", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFullTextIndex_RemoveByDocument(t *testing.T) {
	idx := NewFullTextIndex()
	ctx := context.Background()

	upsertText(t, idx, "c1", "d1", "alpha")
	upsertText(t, idx, "c2", "d1", "alpha")
	upsertText(t, idx, "c3", "d2", "alpha")

	require.NoError(t, idx.RemoveByDocument(ctx, "d1"))

	hits, err := idx.Query(ctx, "alpha", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c3", hits[0].ChunkID)
}

func TestFullTextIndex_Has(t *testing.T) {
	idx := NewFullTextIndex()
	ctx := context.Background()

	upsertText(t, idx, "c1", "d1", "text")

	present, err := idx.Has(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, present)

	require.NoError(t, idx.Remove(ctx, "c1"))
	present, err = idx.Has(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, present)
}
