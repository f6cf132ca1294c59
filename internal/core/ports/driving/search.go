package driving

import (
	"context"

	"github.com/archon-labs/raglite/internal/core/domain"
)

// SearchService provides hybrid search to external actors.
type SearchService interface {
	// Search runs the query against both indexes and returns a fused,
	// deduplicated result list. When one retrieval path is unavailable
	// the response is flagged degraded rather than failing; both paths
	// failing is an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)
}
