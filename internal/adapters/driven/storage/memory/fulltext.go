package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driven"
)

// Ensure FullTextIndex implements the interfaces.
var _ driven.FullTextIndex = (*FullTextIndex)(nil)
var _ driven.IndexInspector = (*FullTextIndex)(nil)

// ftsEntry is one indexed chunk: its document and term frequencies.
type ftsEntry struct {
	documentID string
	terms      map[string]int
	length     int
}

// FullTextIndex is an in-memory implementation of driven.FullTextIndex.
// Scoring is plain term frequency; good enough for tests and small
// corpora, with the same higher-is-better contract as the FTS5 backend.
type FullTextIndex struct {
	mu      sync.RWMutex
	entries map[string]ftsEntry
}

// NewFullTextIndex creates a new in-memory full-text index.
func NewFullTextIndex() *FullTextIndex {
	return &FullTextIndex{
		entries: make(map[string]ftsEntry),
	}
}

// Upsert adds or replaces a chunk in the index.
func (s *FullTextIndex) Upsert(_ context.Context, chunk domain.Chunk) error {
	terms := termFrequencies(chunk.Content)
	total := 0
	for _, n := range terms {
		total += n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[chunk.ID] = ftsEntry{
		documentID: chunk.DocumentID,
		terms:      terms,
		length:     total,
	}
	return nil
}

// Remove deletes a chunk from the index.
func (s *FullTextIndex) Remove(_ context.Context, chunkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, chunkID)
	return nil
}

// RemoveByDocument deletes every entry for a document's chunks.
func (s *FullTextIndex) RemoveByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.entries {
		if entry.documentID == documentID {
			delete(s.entries, id)
		}
	}
	return nil
}

// Query returns the top k chunks ranked by term frequency.
func (s *FullTextIndex) Query(_ context.Context, query string, k int) ([]driven.IndexHit, error) {
	queryTerms := termFrequencies(query)
	if len(queryTerms) == 0 || k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.IndexHit
	for id, entry := range s.entries {
		score := 0.0
		for term := range queryTerms {
			if n := entry.terms[term]; n > 0 && entry.length > 0 {
				score += float64(n) / float64(entry.length)
			}
		}
		if score > 0 {
			hits = append(hits, driven.IndexHit{ChunkID: id, Score: score})
		}
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

// Has reports whether the index contains an entry for chunkID.
func (s *FullTextIndex) Has(_ context.Context, chunkID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[chunkID]
	return ok, nil
}

// Close releases resources.
func (s *FullTextIndex) Close() error {
	return nil
}

// termFrequencies lowercases text and counts its alphanumeric terms.
func termFrequencies(text string) map[string]int {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make(map[string]int, len(fields))
	for _, f := range fields {
		terms[f]++
	}
	return terms
}
