package driven

import (
	"context"

	"github.com/archon-labs/raglite/internal/core/domain"
)

// ChunkStore persists documents and chunks.
// It is the source of truth both indexes are derived from: per chunk it
// retains the parent document ID, ordinal position, text and optional
// vector, which is enough to rebuild either index from scratch.
type ChunkStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByURI retrieves a document by its source locator.
	GetDocumentByURI(ctx context.Context, uri string) (*domain.Document, error)

	// ListDocuments returns all documents ordered by URI.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetChunks retrieves all chunks for a document ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteChunks removes all chunks for a document.
	DeleteChunks(ctx context.Context, documentID string) error

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// Close releases resources.
	Close() error
}

// Transactional is implemented by stores that support multi-statement
// atomicity. WithTx runs fn inside one transaction; the transaction is
// carried in the derived context, so store and index adapters backed by
// the same storage participate in it. fn returning an error, or ctx
// cancellation at any suspension point, rolls the whole unit back.
//
// Callers must type-assert: stores without transactions simply run
// mutations directly and rely on compensating cleanup.
type Transactional interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}
