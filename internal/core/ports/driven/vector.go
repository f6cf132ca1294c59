package driven

import "context"

// VectorIndex provides similarity search over chunk embeddings.
// The default deployment stores vectors in SQLite and scans with exact
// cosine similarity; the contract does not mandate an index structure.
type VectorIndex interface {
	// Upsert adds or replaces the vector for a chunk.
	Upsert(ctx context.Context, chunkID string, embedding []float32) error

	// Remove deletes a chunk's vector from the index.
	Remove(ctx context.Context, chunkID string) error

	// RemoveByDocument deletes every vector for a document's chunks.
	RemoveByDocument(ctx context.Context, documentID string) error

	// Query returns the k nearest chunks to the query vector,
	// most similar first.
	Query(ctx context.Context, embedding []float32, k int) ([]IndexHit, error)

	// Close releases resources.
	Close() error
}
