package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-labs/raglite/internal/adapters/driven/storage/memory"
	"github.com/archon-labs/raglite/internal/core/domain"
)

func TestValidateVectorDimensions_RejectsMismatchedProvider(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorIndex(nil)
	require.NoError(t, vectors.Upsert(ctx, "c1", []float32{0.1, 0.2, 0.3}))

	// A 4-dimension provider cannot query 3-dimension vectors; without
	// the startup check the stored chunk silently never matches.
	embedder := &stubEmbedder{vec: []float32{1, 0, 0, 0}}

	err := ValidateVectorDimensions(ctx, vectors, embedder)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "4-dimension")
	assert.Contains(t, err.Error(), "3-dimension")
}

func TestValidateVectorDimensions_AcceptsMatchingProvider(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorIndex(nil)
	require.NoError(t, vectors.Upsert(ctx, "c1", []float32{0.1, 0.2, 0.3}))

	err := ValidateVectorDimensions(ctx, vectors, &stubEmbedder{vec: []float32{1, 0, 0}})
	assert.NoError(t, err)
}

func TestValidateVectorDimensions_EmptyIndexAcceptsAnyProvider(t *testing.T) {
	err := ValidateVectorDimensions(context.Background(), memory.NewVectorIndex(nil), &stubEmbedder{vec: []float32{1, 0}})
	assert.NoError(t, err)
}

func TestValidateVectorDimensions_SkipsUnconfiguredVectorPath(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, ValidateVectorDimensions(ctx, nil, &stubEmbedder{vec: []float32{1}}))
	assert.NoError(t, ValidateVectorDimensions(ctx, memory.NewVectorIndex(nil), nil))
}

func TestValidateVectorDimensions_SkipsNonReportingIndex(t *testing.T) {
	err := ValidateVectorDimensions(context.Background(), &stubVector{}, &stubEmbedder{vec: []float32{1, 0}})
	assert.NoError(t, err)
}
