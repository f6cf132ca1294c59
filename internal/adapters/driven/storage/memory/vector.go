package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/archon-labs/raglite/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interfaces.
var _ driven.VectorIndex = (*VectorIndex)(nil)
var _ driven.IndexInspector = (*VectorIndex)(nil)
var _ driven.DimensionReporter = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex
// using an exact cosine scan.
type VectorIndex struct {
	mu      sync.RWMutex
	vectors map[string][]float32
	// store resolves document membership for RemoveByDocument;
	// optional when that operation is never used.
	store driven.ChunkStore
}

// NewVectorIndex creates a new in-memory vector index. store, when
// non-nil, resolves which chunks belong to a document.
func NewVectorIndex(store driven.ChunkStore) *VectorIndex {
	return &VectorIndex{
		vectors: make(map[string][]float32),
		store:   store,
	}
}

// Upsert adds or replaces the vector for a chunk.
func (s *VectorIndex) Upsert(_ context.Context, chunkID string, embedding []float32) error {
	vec := make([]float32, len(embedding))
	copy(vec, embedding)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[chunkID] = vec
	return nil
}

// Remove deletes a chunk's vector from the index.
func (s *VectorIndex) Remove(_ context.Context, chunkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vectors, chunkID)
	return nil
}

// RemoveByDocument deletes every vector for a document's chunks.
func (s *VectorIndex) RemoveByDocument(ctx context.Context, documentID string) error {
	if s.store == nil {
		return nil
	}
	chunks, err := s.store.GetChunks(ctx, documentID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		delete(s.vectors, chunk.ID)
	}
	return nil
}

// Query returns the k nearest chunks by cosine similarity.
func (s *VectorIndex) Query(_ context.Context, embedding []float32, k int) ([]driven.IndexHit, error) {
	if len(embedding) == 0 || k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.IndexHit
	for id, vec := range s.vectors {
		if len(vec) != len(embedding) {
			continue
		}
		hits = append(hits, driven.IndexHit{
			ChunkID: id,
			Score:   cosineSimilarity(embedding, vec),
		})
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
func (s *VectorIndex) Has(_ context.Context, chunkID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vec, ok := s.vectors[chunkID]
	return ok && len(vec) > 0, nil
}

// Dimensions reports the dimension of the stored vectors, or 0 when
// the index is empty.
func (s *VectorIndex) Dimensions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, vec := range s.vectors {
		if len(vec) > 0 {
			return len(vec), nil
		}
	}
	return 0, nil
}

// Close releases resources.
func (s *VectorIndex) Close() error {
	return nil
}

// cosineSimilarity computes the cosine of the angle between a and b.
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
