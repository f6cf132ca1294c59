package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"

	"github.com/archon-labs/raglite/internal/core/ports/driven"
)

// vectorIndex implements driven.VectorIndex over the embedding column of
// the chunks table. Queries do an exact cosine scan; at local-corpus
// scale that beats maintaining a separate ANN structure.
type vectorIndex struct {
	store *Store
}

var _ driven.VectorIndex = (*vectorIndex)(nil)
var _ driven.IndexInspector = (*vectorIndex)(nil)
var _ driven.DimensionReporter = (*vectorIndex)(nil)

// Upsert adds or replaces the vector for a chunk.
func (s *vectorIndex) Upsert(ctx context.Context, chunkID string, embedding []float32) error {
	res, err := s.store.q(ctx).ExecContext(ctx,
		"UPDATE chunks SET embedding = ? WHERE id = ?",
		float32SliceToBytes(embedding), chunkID)
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("storing embedding: chunk %s not found", chunkID)
	}
	return nil
}

// Remove deletes a chunk's vector from the index.
func (s *vectorIndex) Remove(ctx context.Context, chunkID string) error {
	_, err := s.store.q(ctx).ExecContext(ctx,
		"UPDATE chunks SET embedding = NULL WHERE id = ?", chunkID)
	if err != nil {
		return fmt.Errorf("removing embedding: %w", err)
	}
	return nil
}

// RemoveByDocument deletes every vector for a document's chunks.
func (s *vectorIndex) RemoveByDocument(ctx context.Context, documentID string) error {
	_, err := s.store.q(ctx).ExecContext(ctx,
		"UPDATE chunks SET embedding = NULL WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("removing embeddings: %w", err)
	}
	return nil
}

// Query returns the k nearest chunks to the query vector by cosine
// similarity, most similar first.
func (s *vectorIndex) Query(ctx context.Context, embedding []float32, k int) ([]driven.IndexHit, error) {
	if len(embedding) == 0 || k <= 0 {
		return nil, nil
	}

	rows, err := s.store.q(ctx).QueryContext(ctx,
		"SELECT id, embedding FROM chunks WHERE embedding IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var hits []driven.IndexHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}

		vec := bytesToFloat32Slice(blob)
		if len(vec) != len(embedding) {
			continue // dimension mismatch, likely from an older model
		}

		hits = append(hits, driven.IndexHit{
			ChunkID: id,
			Score:   cosineSimilarity(embedding, vec),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Has reports whether the index holds a vector for chunkID.
func (s *vectorIndex) Has(ctx context.Context, chunkID string) (bool, error) {
	var count int
	err := s.store.q(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE id = ? AND embedding IS NOT NULL", chunkID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking embedding: %w", err)
	}
	return count > 0, nil
}

// Dimensions reports the dimension of the persisted vectors by
// sampling one row, or 0 when no vectors are stored. All vectors
// written through one provider share a dimension, so one sample is
// representative.
func (s *vectorIndex) Dimensions(ctx context.Context) (int, error) {
	var size int
	err := s.store.q(ctx).QueryRowContext(ctx,
		"SELECT length(embedding) FROM chunks WHERE embedding IS NOT NULL LIMIT 1").Scan(&size)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sampling embedding: %w", err)
	}
	return size / 4, nil
}

// Close closes the underlying database.
func (s *vectorIndex) Close() error {
	return s.store.Close()
}

// cosineSimilarity computes the cosine of the angle between a and b.
// Slices must be the same length.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
