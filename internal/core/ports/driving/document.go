package driving

import (
	"context"

	"github.com/archon-labs/raglite/internal/core/domain"
)

// CreateRequest describes a document to ingest.
type CreateRequest struct {
	// URI is the source locator. Unique across the corpus.
	URI string

	// Title is the human-readable title. Optional.
	Title string

	// Content is the raw document text.
	Content string

	// Metadata contains arbitrary key-value pairs. Optional.
	Metadata map[string]any

	// Overwrite allows replacing an existing document with the same URI.
	// Without it, a duplicate URI fails with ErrAlreadyExists.
	Overwrite bool
}

// DocumentService owns the document lifecycle: create, update and
// delete, with re-chunking and re-indexing on change. It keeps both
// indexes consistent with the chunk store.
type DocumentService interface {
	// Create ingests a new document: chunk, embed, index.
	// Returns the created document with its assigned ID.
	Create(ctx context.Context, req CreateRequest) (*domain.Document, error)

	// Update re-ingests a document's content. Identical content is a
	// no-op; changed content atomically replaces all chunks and index
	// entries for the document.
	Update(ctx context.Context, id, title, content string) (*domain.Document, error)

	// Delete removes a document, its chunks and all index entries.
	// Fails with ErrNotFound if the document is absent.
	Delete(ctx context.Context, id string) error

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetByURI retrieves a document by its source locator.
	GetByURI(ctx context.Context, uri string) (*domain.Document, error)

	// List returns all documents.
	List(ctx context.Context) ([]domain.Document, error)

	// RebuildIndexes re-derives both indexes from the chunk store.
	// This is the disaster-recovery path: indexes are derived state,
	// never the sole source of truth.
	RebuildIndexes(ctx context.Context) error

	// Verify checks index consistency against the chunk store and
	// returns a report of affected documents.
	Verify(ctx context.Context) (*VerifyReport, error)
}

// VerifyReport summarises an index integrity check.
type VerifyReport struct {
	// DocumentsChecked is the number of documents examined.
	DocumentsChecked int

	// ChunksChecked is the number of chunks examined.
	ChunksChecked int

	// Inconsistent lists IDs of documents whose index entries do not
	// match the chunk store. Empty means the indexes are consistent.
	Inconsistent []string
}
