package driven

import "context"

// IndexInspector is optionally implemented by index adapters that can
// report whether an entry exists for a chunk. Integrity checks use it
// to detect drift between the chunk store and an index; adapters that
// cannot answer cheaply simply do not implement it.
type IndexInspector interface {
	// Has reports whether the index holds an entry for chunkID.
	Has(ctx context.Context, chunkID string) (bool, error)
}

// DimensionReporter is optionally implemented by vector indexes that
// can report the dimension of their persisted vectors. Startup checks
// use it to reject an embedding provider whose dimension disagrees
// with what the index already holds.
type DimensionReporter interface {
	// Dimensions returns the dimension of the stored vectors, or 0
	// when the index holds none.
	Dimensions(ctx context.Context) (int, error)
}
