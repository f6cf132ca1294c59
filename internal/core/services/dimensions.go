package services

import (
	"context"
	"fmt"

	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driven"
)

// ValidateVectorDimensions rejects an embedding provider whose vector
// dimension disagrees with vectors already persisted in the index.
// Run at startup: a mismatched provider would leave every stored
// vector unreachable by similarity search without any error surfacing
// at query time.
//
// An empty index, a missing provider, or an index that cannot report
// its dimension all pass: there is nothing to disagree with.
func ValidateVectorDimensions(ctx context.Context, vectors driven.VectorIndex, embedder driven.EmbeddingService) error {
	if vectors == nil || embedder == nil {
		return nil
	}
	reporter, ok := vectors.(driven.DimensionReporter)
	if !ok {
		return nil
	}

	stored, err := reporter.Dimensions(ctx)
	if err != nil {
		return fmt.Errorf("inspect vector dimensions: %w", err)
	}
	if stored == 0 {
		return nil
	}

	if want := embedder.Dimensions(); stored != want {
		return fmt.Errorf(
			"%w: embedding provider %s produces %d-dimension vectors but the index holds %d-dimension vectors; change the provider or rebuild the index",
			domain.ErrInvalidConfig, embedder.ModelName(), want, stored)
	}
	return nil
}
