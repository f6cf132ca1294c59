package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DocumentStatus describes how completely a document is indexed.
type DocumentStatus string

const (
	// StatusIndexed means the document is present in both indexes.
	StatusIndexed DocumentStatus = "indexed"

	// StatusPartial means the document is full-text searchable only.
	// Embeddings could not be generated; vector search will not surface it
	// until it is re-embedded (e.g. via an index rebuild).
	StatusPartial DocumentStatus = "partial"
)

// Document represents an ingested document.
// It is the authoritative record chunks are derived from.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URI is the source locator (file path, URL, or opaque label).
	// It is unique across the corpus.
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content before chunking.
	Content string

	// ContentHash is the SHA-256 of Content, used for change detection.
	ContentHash string

	// Status records indexing completeness.
	Status DocumentStatus

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first indexed.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Chunk represents a searchable unit within a document.
// Chunks for a document are contiguous and ordered by Position;
// consecutive chunks share a configured token overlap.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// TokenCount is the number of tokens in Content.
	TokenCount int

	// Embedding is the vector representation for semantic search.
	// Nil until computed; the chunk stays full-text searchable without it.
	Embedding []float32

	// CreatedAt is when the chunk was persisted.
	CreatedAt time.Time

	// UpdatedAt is when the chunk was last updated.
	UpdatedAt time.Time
}

// HashContent returns the SHA-256 hex digest of content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
