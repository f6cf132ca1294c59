package driven

import (
	"context"

	"github.com/archon-labs/raglite/internal/core/domain"
)

// FullTextIndex provides ranked lexical search over chunk text.
// Backed by SQLite FTS5 (BM25) in the default deployment.
//
// The contract is backend-agnostic: higher raw score means more
// relevant, and no other scoring semantics leak to callers.
type FullTextIndex interface {
	// Upsert adds or replaces a chunk in the index.
	Upsert(ctx context.Context, chunk domain.Chunk) error

	// Remove deletes a chunk from the index.
	Remove(ctx context.Context, chunkID string) error

	// RemoveByDocument deletes every entry for a document's chunks.
	RemoveByDocument(ctx context.Context, documentID string) error

	// Query returns the top k chunks ranked by lexical relevance.
	Query(ctx context.Context, query string, k int) ([]IndexHit, error)

	// Close releases resources.
	Close() error
}

// IndexHit is a single ranked entry returned by an index.
type IndexHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the backend's raw relevance score. Only its ordering is
	// meaningful across backends.
	Score float64
}
