package domain

// SearchPath identifies which retrieval path produced a result.
type SearchPath string

const (
	// PathVector means the result came from vector similarity search only.
	PathVector SearchPath = "vector"

	// PathLexical means the result came from full-text search only.
	PathLexical SearchPath = "lexical"

	// PathBoth means the result was retrieved by both paths and merged.
	PathBoth SearchPath = "both"
)

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results. Defaults to 10 when <= 0.
	Limit int

	// VectorWeight overrides the configured vector-path fusion weight.
	// The override applies when either weight is set; both zero defers
	// to configuration. Weights are normalised to sum to 1 before
	// fusion, so an unset partner contributes nothing.
	VectorWeight float64

	// TextWeight overrides the configured lexical-path fusion weight.
	// Same override semantics as VectorWeight.
	TextWeight float64

	// DocumentIDs filters results to specific parent documents.
	DocumentIDs []string
}

// SearchResult represents a single search hit.
// Results are ephemeral - constructed per query, never persisted.
type SearchResult struct {
	// Document is the parent of the matched chunk.
	Document Document

	// Chunk is the specific chunk that matched.
	Chunk Chunk

	// Score is the fused relevance score in [0,1].
	Score float64

	// Path records which retrieval path(s) produced this result.
	Path SearchPath
}

// SearchResponse is the full answer to one query, including degraded-mode
// metadata. A degraded response is not an error: one retrieval path was
// unavailable and the other served the query alone.
type SearchResponse struct {
	// Results is the fused, deduplicated result list, ordered by
	// descending score with deterministic tie-breaks.
	Results []SearchResult

	// Degraded is true when one retrieval path failed.
	Degraded bool

	// FailedPath names the unavailable path when Degraded is set.
	FailedPath SearchPath
}
