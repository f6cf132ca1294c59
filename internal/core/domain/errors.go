package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a document with the same URI already
	// exists and overwrite was not requested.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates an invalid configuration relationship,
	// such as chunk overlap >= chunk size or a non-positive embedding
	// dimension. Fatal at construction time.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrProviderUnavailable indicates the embedding or LLM provider is
	// unreachable or erroring. Recoverable per call: search degrades to
	// full-text only, ingestion retries then leaves the document partial.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrSearchUnavailable indicates both retrieval paths failed.
	// Unlike a degraded response, this is a hard failure.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrIndexInconsistent indicates a detected mismatch between the chunk
	// store and an index. The affected document is not reliably searchable
	// until repaired by a full re-index.
	ErrIndexInconsistent = errors.New("index inconsistent with chunk store")

	// ErrLLMUnavailable indicates the LLM service is not configured.
	// Question answering is disabled without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Vector search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
