package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-labs/raglite/internal/adapters/driven/storage/memory"
	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driven"
)

// --- Mock implementations ---

// stubFullText implements driven.FullTextIndex with canned hits.
type stubFullText struct {
	hits     []driven.IndexHit
	err      error
	gotQuery string
}

func (m *stubFullText) Upsert(_ context.Context, _ domain.Chunk) error     { return nil }
func (m *stubFullText) Remove(_ context.Context, _ string) error           { return nil }
func (m *stubFullText) RemoveByDocument(_ context.Context, _ string) error { return nil }
func (m *stubFullText) Close() error                                       { return nil }

func (m *stubFullText) Query(_ context.Context, q string, k int) ([]driven.IndexHit, error) {
	m.gotQuery = q
	if m.err != nil {
		return nil, m.err
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

// stubVector implements driven.VectorIndex with canned hits.
type stubVector struct {
	hits []driven.IndexHit
	err  error
}

func (m *stubVector) Upsert(_ context.Context, _ string, _ []float32) error { return nil }
func (m *stubVector) Remove(_ context.Context, _ string) error              { return nil }
func (m *stubVector) RemoveByDocument(_ context.Context, _ string) error    { return nil }
func (m *stubVector) Close() error                                          { return nil }

func (m *stubVector) Query(_ context.Context, _ []float32, k int) ([]driven.IndexHit, error) {
	if m.err != nil {
		return nil, m.err
	}
	if k > len(m.hits) {
		return m.hits, nil
	}
	return m.hits[:k], nil
}

// stubEmbedder implements driven.EmbeddingService.
type stubEmbedder struct {
	vec     []float32
	err     error
	calls   int
	gotText string
}

func (m *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	m.gotText = text
	if m.err != nil {
		return nil, m.err
	}
	return m.vec, nil
}

func (m *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (m *stubEmbedder) Dimensions() int   { return len(m.vec) }
func (m *stubEmbedder) ModelName() string { return "stub-embed" }
func (m *stubEmbedder) Close() error      { return nil }

// searchCorpus seeds a memory store with one document per chunk ID so
// every index hit hydrates.
func searchCorpus(t *testing.T, chunkIDs ...string) *memory.ChunkStore {
	t.Helper()
	store := memory.NewChunkStore()
	ctx := context.Background()

	require.NoError(t, store.SaveDocument(ctx, &domain.Document{
		ID:      "doc1",
		URI:     "file:///doc1",
		Title:   "Doc One",
		Content: "content",
		Status:  domain.StatusIndexed,
	}))

	chunks := make([]domain.Chunk, len(chunkIDs))
	for i, id := range chunkIDs {
		chunks[i] = domain.Chunk{
			ID:         id,
			DocumentID: "doc1",
			Content:    "chunk " + id,
			Position:   i,
		}
	}
	require.NoError(t, store.SaveChunks(ctx, chunks))
	return store
}

// --- Tests ---

func TestSearch_FusesBothPaths(t *testing.T) {
	store := searchCorpus(t, "c1", "c2", "c3")
	svc := NewSearchService(
		store,
		&stubFullText{hits: []driven.IndexHit{{ChunkID: "c2", Score: 5}, {ChunkID: "c3", Score: 3}}},
		&stubVector{hits: []driven.IndexHit{{ChunkID: "c1", Score: 0.9}, {ChunkID: "c2", Score: 0.8}}},
		&stubEmbedder{vec: []float32{1, 0}},
		0.5, 0.5,
	)

	resp, err := svc.Search(context.Background(), "query", domain.SearchOptions{Limit: 10})
	require.NoError(t, err)
	assert.False(t, resp.Degraded)
	require.Len(t, resp.Results, 3)

	// c2 is found by both paths and must rank first.
	assert.Equal(t, "c2", resp.Results[0].Chunk.ID)
	assert.Equal(t, domain.PathBoth, resp.Results[0].Path)
	assert.Equal(t, "c1", resp.Results[1].Chunk.ID)
	assert.Equal(t, domain.PathVector, resp.Results[1].Path)
	assert.Equal(t, "c3", resp.Results[2].Chunk.ID)
	assert.Equal(t, domain.PathLexical, resp.Results[2].Path)

	// Rank-normalised scoring: rank 0 contributes weight*1, rank 1
	// contributes weight*61/62.
	second := 61.0 / 62.0
	assert.InDelta(t, 0.5*second+0.5*1.0, resp.Results[0].Score, 1e-9)
	assert.InDelta(t, 0.5*1.0, resp.Results[1].Score, 1e-9)
	assert.InDelta(t, 0.5*second, resp.Results[2].Score, 1e-9)
}

func TestSearch_DeduplicatesAcrossPaths(t *testing.T) {
	store := searchCorpus(t, "c1")
	svc := NewSearchService(
		store,
		&stubFullText{hits: []driven.IndexHit{{ChunkID: "c1", Score: 2}}},
		&stubVector{hits: []driven.IndexHit{{ChunkID: "c1", Score: 0.9}}},
		&stubEmbedder{vec: []float32{1}},
		0.5, 0.5,
	)

	resp, err := svc.Search(context.Background(), "query", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, domain.PathBoth, resp.Results[0].Path)
	// Top hit on both paths fuses to exactly 1 with normalised weights.
	assert.InDelta(t, 1.0, resp.Results[0].Score, 1e-9)
}

func TestSearch_LimitAndDeterministicTieBreaks(t *testing.T) {
	store := searchCorpus(t, "c1", "c2", "c3", "c4")
	// All four chunks only in the lexical path with distinct ranks.
	ft := &stubFullText{hits: []driven.IndexHit{
		{ChunkID: "c4"}, {ChunkID: "c2"}, {ChunkID: "c3"}, {ChunkID: "c1"},
	}}
	svc := NewSearchService(store, ft, nil, nil, 0, 1)

	resp, err := svc.Search(context.Background(), "query", domain.SearchOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "c4", resp.Results[0].Chunk.ID)
	assert.Equal(t, "c2", resp.Results[1].Chunk.ID)

	// Same query again returns identical ordering.
	again, err := svc.Search(context.Background(), "query", domain.SearchOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, resp.Results, again.Results)
}

func TestSearch_EqualScoresOrderedByPosition(t *testing.T) {
	store := searchCorpus(t, "c1", "c2")
	svc := NewSearchService(
		store,
		&stubFullText{hits: []driven.IndexHit{{ChunkID: "c2"}}},
		&stubVector{hits: []driven.IndexHit{{ChunkID: "c1"}}},
		&stubEmbedder{vec: []float32{1}},
		0.5, 0.5,
	)

	// Both chunks are rank 0 on their single path: identical fused
	// scores, so chunk position decides.
	resp, err := svc.Search(context.Background(), "query", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "c1", resp.Results[0].Chunk.ID)
	assert.Equal(t, "c2", resp.Results[1].Chunk.ID)
}

func TestSearch_DegradedWhenEmbedderFails(t *testing.T) {
	store := searchCorpus(t, "c1")
	svc := NewSearchService(
		store,
		&stubFullText{hits: []driven.IndexHit{{ChunkID: "c1", Score: 2}}},
		&stubVector{},
		&stubEmbedder{err: errors.New("provider down")},
		0.5, 0.5,
	)

	resp, err := svc.Search(context.Background(), "query", domain.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, domain.PathVector, resp.FailedPath)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "c1", resp.Results[0].Chunk.ID)
}

func TestSearch_DegradedWhenLexicalFails(t *testing.T) {
	store := searchCorpus(t, "c1")
	svc := NewSearchService(
		store,
		&stubFullText{err: errors.New("index corrupt")},
		&stubVector{hits: []driven.IndexHit{{ChunkID: "c1", Score: 0.9}}},
		&stubEmbedder{vec: []float32{1}},
		0.5, 0.5,
	)

	resp, err := svc.Search(context.Background(), "query", domain.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
	assert.Equal(t, domain.PathLexical, resp.FailedPath)
	require.Len(t, resp.Results, 1)
}

func TestSearch_LexicalOnlyIsNotDegraded(t *testing.T) {
	store := searchCorpus(t, "c1")
	svc := NewSearchService(
		store,
		&stubFullText{hits: []driven.IndexHit{{ChunkID: "c1", Score: 2}}},
		nil, nil,
		0.5, 0.5,
	)

	resp, err := svc.Search(context.Background(), "query", domain.SearchOptions{})
	require.NoError(t, err)
	assert.False(t, resp.Degraded)
	require.Len(t, resp.Results, 1)
}

func TestSearch_BothPathsFailing(t *testing.T) {
	store := searchCorpus(t, "c1")
	svc := NewSearchService(
		store,
		&stubFullText{err: errors.New("fts down")},
		&stubVector{err: errors.New("vec down")},
		&stubEmbedder{vec: []float32{1}},
		0.5, 0.5,
	)

	_, err := svc.Search(context.Background(), "query", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}

func TestSearch_LexicalFailureWithoutVectorPath(t *testing.T) {
	store := searchCorpus(t, "c1")
	svc := NewSearchService(store, &stubFullText{err: errors.New("fts down")}, nil, nil, 0.5, 0.5)

	_, err := svc.Search(context.Background(), "query", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}

func TestSearch_EmptyQuery(t *testing.T) {
	store := searchCorpus(t, "c1")
	svc := NewSearchService(store, &stubFullText{}, nil, nil, 0.5, 0.5)

	resp, err := svc.Search(context.Background(), "   ", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearch_DocumentFilter(t *testing.T) {
	store := memory.NewChunkStore()
	ctx := context.Background()
	for _, docID := range []string{"d1", "d2"} {
		require.NoError(t, store.SaveDocument(ctx, &domain.Document{
			ID: docID, URI: "file:///" + docID, Status: domain.StatusIndexed,
		}))
		require.NoError(t, store.SaveChunks(ctx, []domain.Chunk{
			{ID: docID + "-c", DocumentID: docID, Content: "text", Position: 0},
		}))
	}

	svc := NewSearchService(
		store,
		&stubFullText{hits: []driven.IndexHit{{ChunkID: "d1-c", Score: 2}, {ChunkID: "d2-c", Score: 1}}},
		nil, nil,
		0.5, 0.5,
	)

	resp, err := svc.Search(ctx, "text", domain.SearchOptions{DocumentIDs: []string{"d2"}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "d2", resp.Results[0].Document.ID)
}

func TestSearch_StaleHitsSkipped(t *testing.T) {
	store := searchCorpus(t, "c1")
	svc := NewSearchService(
		store,
		&stubFullText{hits: []driven.IndexHit{{ChunkID: "deleted", Score: 9}, {ChunkID: "c1", Score: 1}}},
		nil, nil,
		0.5, 0.5,
	)

	resp, err := svc.Search(context.Background(), "query", domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "c1", resp.Results[0].Chunk.ID)
}

func TestSearch_PerQueryWeightsOverride(t *testing.T) {
	store := searchCorpus(t, "c1", "c2")
	svc := NewSearchService(
		store,
		&stubFullText{hits: []driven.IndexHit{{ChunkID: "c2"}}},
		&stubVector{hits: []driven.IndexHit{{ChunkID: "c1"}}},
		&stubEmbedder{vec: []float32{1}},
		0.5, 0.5,
	)

	// Full weight on the lexical path pushes the lexical-only chunk
	// ahead of the vector-only one.
	resp, err := svc.Search(context.Background(), "query", domain.SearchOptions{
		VectorWeight: 0, TextWeight: 1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "c2", resp.Results[0].Chunk.ID)
	assert.InDelta(t, 1.0, resp.Results[0].Score, 1e-9)
	assert.InDelta(t, 0.0, resp.Results[1].Score, 1e-9)
}

func TestSearch_LexicalPathGetsExtractedKeywords(t *testing.T) {
	store := searchCorpus(t, "c1")
	ft := &stubFullText{hits: []driven.IndexHit{{ChunkID: "c1"}}}
	svc := NewSearchService(store, ft, nil, nil, 0, 1)

	_, err := svc.Search(context.Background(), "the score of a match", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "score match", ft.gotQuery)
}

func TestSearch_LexicalPathFallsBackToRawQuery(t *testing.T) {
	store := searchCorpus(t, "c1")
	ft := &stubFullText{}
	svc := NewSearchService(store, ft, nil, nil, 0, 1)

	// All stop words: keyword extraction yields nothing, the raw
	// query goes through.
	_, err := svc.Search(context.Background(), "of the and", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "of the and", ft.gotQuery)
}

func TestSearch_VectorPathEmbedsCleanedQuery(t *testing.T) {
	store := searchCorpus(t, "c1")
	embedder := &stubEmbedder{vec: []float32{1}}
	svc := NewSearchService(
		store,
		&stubFullText{},
		&stubVector{hits: []driven.IndexHit{{ChunkID: "c1"}}},
		embedder,
		0.5, 0.5,
	)

	// Punctuation is stripped but the natural-language form survives,
	// stop words included.
	_, err := svc.Search(context.Background(), "did the revenue grow?!", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "did the revenue grow", embedder.gotText)
}
