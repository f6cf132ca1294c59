package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driven"
	"github.com/archon-labs/raglite/internal/core/ports/driving"
	"github.com/archon-labs/raglite/internal/logger"
	"github.com/archon-labs/raglite/internal/query"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// Fusion constants.
const (
	// rrfK dampens the influence of top ranks in reciprocal rank
	// fusion. 60 is the conventional value.
	rrfK = 60

	// oversampleFactor is how many candidates each path returns
	// relative to the requested limit, to give fusion headroom.
	oversampleFactor = 3

	// maxOversample bounds per-path index work regardless of the
	// requested limit.
	maxOversample = 100

	// defaultLimit applies when the caller passes limit <= 0.
	defaultLimit = 10
)

// scoredChunk holds intermediate results before hydration.
type scoredChunk struct {
	chunkID string
	score   float64
	path    domain.SearchPath
}

// SearchService is the hybrid retrieval engine. It queries the vector
// and full-text indexes in parallel, fuses the two ranked lists into
// one deduplicated result set, and degrades to a single path when the
// other is unavailable.
type SearchService struct {
	store        driven.ChunkStore
	fulltext     driven.FullTextIndex
	vectors      driven.VectorIndex
	embedder     driven.EmbeddingService
	vectorWeight float64
	textWeight   float64
}

// NewSearchService creates a hybrid search engine.
// vectors and embedder are optional (can be nil); without them queries
// are served by the lexical path alone.
func NewSearchService(
	store driven.ChunkStore,
	fulltext driven.FullTextIndex,
	vectors driven.VectorIndex,
	embedder driven.EmbeddingService,
	vectorWeight, textWeight float64,
) *SearchService {
	if vectorWeight <= 0 && textWeight <= 0 {
		vectorWeight, textWeight = 0.5, 0.5
	}
	return &SearchService{
		store:        store,
		fulltext:     fulltext,
		vectors:      vectors,
		embedder:     embedder,
		vectorWeight: vectorWeight,
		textWeight:   textWeight,
	}
}

// Search performs hybrid search across all indexed documents.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return &domain.SearchResponse{Results: []domain.SearchResult{}}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	k := limit * oversampleFactor
	if k > maxOversample {
		k = maxOversample
	}
	if k < limit {
		k = limit
	}
	logger.Debug("Limit: %d, per-path candidates: %d", limit, k)

	wv, wf := s.weights(opts)

	// Run both retrieval paths in parallel.
	var lexHits, vecHits []driven.IndexHit
	var lexErr, vecErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		lexHits, lexErr = s.lexicalSearch(ctx, query, k)
	}()
	go func() {
		defer wg.Done()
		vecHits, vecErr = s.vectorSearch(ctx, query, k)
	}()
	wg.Wait()

	vectorConfigured := s.vectors != nil && s.embedder != nil

	resp := &domain.SearchResponse{}
	switch {
	case lexErr != nil && vecErr != nil:
		logger.Warn("Both retrieval paths failed: lexical=%v, vector=%v", lexErr, vecErr)
		return nil, fmt.Errorf("%w: lexical: %w; vector: %w", domain.ErrSearchUnavailable, lexErr, vecErr)

	case lexErr != nil && !vectorConfigured:
		// No second path to fall back on.
		return nil, fmt.Errorf("%w: lexical: %w", domain.ErrSearchUnavailable, lexErr)

	case lexErr != nil:
		logger.Warn("Lexical path failed, serving vector results only: %v", lexErr)
		resp.Degraded = true
		resp.FailedPath = domain.PathLexical

	case vecErr != nil:
		logger.Warn("Vector path failed, serving lexical results only: %v", vecErr)
		resp.Degraded = true
		resp.FailedPath = domain.PathVector

	case !vectorConfigured:
		// Lexical-only deployment; not a degradation.
		logger.Debug("Vector path not configured")
	}

	logger.Debug("Candidates: %d lexical, %d vector", len(lexHits), len(vecHits))

	fused := fuse(vecHits, lexHits, wv, wf)

	results, err := s.hydrate(ctx, fused, opts.DocumentIDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}

	logger.Info("Final results: %d (degraded=%t)", len(results), resp.Degraded)
	resp.Results = results
	return resp, nil
}

// weights resolves fusion weights from per-query options or service
// configuration, normalised to sum to 1 so fused scores stay in [0,1].
func (s *SearchService) weights(opts domain.SearchOptions) (wv, wf float64) {
	wv, wf = s.vectorWeight, s.textWeight
	if opts.VectorWeight > 0 || opts.TextWeight > 0 {
		wv, wf = opts.VectorWeight, opts.TextWeight
	}
	total := wv + wf
	if total <= 0 {
		return 0.5, 0.5
	}
	return wv / total, wf / total
}

// lexicalSearch queries the full-text index with the extracted
// keywords. Stop words only dilute BM25 relevance; a query with no
// extractable keywords falls back to its raw form.
func (s *SearchService) lexicalSearch(ctx context.Context, q string, k int) ([]driven.IndexHit, error) {
	if s.fulltext == nil {
		return nil, domain.ErrSearchUnavailable
	}

	fq := q
	if terms := query.Keywords(q); len(terms) > 0 {
		fq = strings.Join(terms, " ")
	}

	hits, err := s.fulltext.Query(ctx, fq, k)
	if err != nil {
		return nil, fmt.Errorf("full-text query: %w", err)
	}
	return hits, nil
}

// vectorSearch embeds the query and searches the vector index. The
// query keeps its natural-language form, cleaned of punctuation, so
// the embedding sees the full context.
func (s *SearchService) vectorSearch(ctx context.Context, q string, k int) ([]driven.IndexHit, error) {
	if s.vectors == nil || s.embedder == nil {
		return nil, nil
	}

	cleaned := query.Clean(q)
	if cleaned == "" {
		cleaned = q
	}

	embedding, err := s.embedder.Embed(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectors.Query(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}
	return hits, nil
}

// fuse merges the two ranked candidate lists using reciprocal-rank
// normalisation. A chunk at 0-based rank r scores 1/(rrfK+r+1),
// normalised by the best attainable 1/(rrfK+1) so each path's score
// lies in (0,1]. The fused score is the weighted sum; a chunk found by
// only one path keeps that path's contribution alone - no boost from
// the absent path. Raw index scores never mix across paths, only ranks
// do, which makes the fusion robust to incomparable scoring scales.
func fuse(vecHits, lexHits []driven.IndexHit, wv, wf float64) []scoredChunk {
	type contribution struct {
		vector  float64
		lexical float64
		paths   int
	}

	merged := make(map[string]*contribution, len(vecHits)+len(lexHits))

	for rank, hit := range vecHits {
		c := merged[hit.ChunkID]
		if c == nil {
			c = &contribution{}
			merged[hit.ChunkID] = c
		}
		c.vector = rrfNorm(rank)
		c.paths |= 1
	}
	for rank, hit := range lexHits {
		c := merged[hit.ChunkID]
		if c == nil {
			c = &contribution{}
			merged[hit.ChunkID] = c
		}
		c.lexical = rrfNorm(rank)
		c.paths |= 2
	}

	fused := make([]scoredChunk, 0, len(merged))
	for id, c := range merged {
		path := domain.PathBoth
		switch c.paths {
		case 1:
			path = domain.PathVector
		case 2:
			path = domain.PathLexical
		}
		fused = append(fused, scoredChunk{
			chunkID: id,
			score:   wv*c.vector + wf*c.lexical,
			path:    path,
		})
	}
	return fused
}

// rrfNorm returns the normalised reciprocal-rank score for a 0-based
// rank: rank 0 scores exactly 1.
func rrfNorm(rank int) float64 {
	return float64(rrfK+1) / float64(rrfK+rank+1)
}

// hydrate converts chunk IDs into full SearchResults, dropping chunks
// or documents deleted since the index was queried.
func (s *SearchService) hydrate(
	ctx context.Context, fused []scoredChunk, documentIDs []string,
) ([]domain.SearchResult, error) {
	var filter map[string]bool
	if len(documentIDs) > 0 {
		filter = make(map[string]bool, len(documentIDs))
		for _, id := range documentIDs {
			filter[id] = true
		}
	}

	results := make([]domain.SearchResult, 0, len(fused))
	for _, sc := range fused {
		chunk, err := s.store.GetChunk(ctx, sc.chunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get chunk %s: %w", sc.chunkID, err)
		}

		if filter != nil && !filter[chunk.DocumentID] {
			continue
		}

		doc, err := s.store.GetDocument(ctx, chunk.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("get document %s: %w", chunk.DocumentID, err)
		}

		results = append(results, domain.SearchResult{
			Document: *doc,
			Chunk:    *chunk,
			Score:    sc.score,
			Path:     sc.path,
		})
	}
	return results, nil
}

// sortResults orders by descending fused score with deterministic
// tie-breaks: chunk ordinal position ascending, then chunk ID.
func sortResults(results []domain.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.Position != results[j].Chunk.Position {
			return results[i].Chunk.Position < results[j].Chunk.Position
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
}
