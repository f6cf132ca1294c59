package sqlite

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driven"
)

// fullTextIndex implements driven.FullTextIndex over an FTS5 virtual table.
type fullTextIndex struct {
	store *Store
}

var _ driven.FullTextIndex = (*fullTextIndex)(nil)
var _ driven.IndexInspector = (*fullTextIndex)(nil)

// Upsert adds or replaces a chunk in the index.
func (s *fullTextIndex) Upsert(ctx context.Context, chunk domain.Chunk) error {
	q := s.store.q(ctx)

	if _, err := q.ExecContext(ctx,
		"DELETE FROM chunks_fts WHERE chunk_id = ?", chunk.ID); err != nil {
		return fmt.Errorf("clearing fts entry: %w", err)
	}

	if _, err := q.ExecContext(ctx, `
		INSERT INTO chunks_fts (chunk_id, document_id, content)
		VALUES (?, ?, ?)
	`, chunk.ID, chunk.DocumentID, chunk.Content); err != nil {
		return fmt.Errorf("inserting fts entry: %w", err)
	}
	return nil
}

// Remove deletes a chunk from the index.
func (s *fullTextIndex) Remove(ctx context.Context, chunkID string) error {
	_, err := s.store.q(ctx).ExecContext(ctx,
		"DELETE FROM chunks_fts WHERE chunk_id = ?", chunkID)
	if err != nil {
		return fmt.Errorf("removing fts entry: %w", err)
	}
	return nil
}

// RemoveByDocument deletes every entry for a document's chunks.
func (s *fullTextIndex) RemoveByDocument(ctx context.Context, documentID string) error {
	_, err := s.store.q(ctx).ExecContext(ctx,
		"DELETE FROM chunks_fts WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("removing fts entries: %w", err)
	}
	return nil
}

// Query returns the top k chunks ranked by BM25 relevance.
// The raw query is reduced to quoted terms first, so user input can
// never reach FTS5 as match syntax.
func (s *fullTextIndex) Query(ctx context.Context, query string, k int) ([]driven.IndexHit, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.store.q(ctx).QueryContext(ctx, `
		SELECT chunk_id, rank
		FROM chunks_fts
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, k)
	if err != nil {
		return nil, fmt.Errorf("querying fts index: %w", err)
	}
	defer rows.Close()

	var hits []driven.IndexHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit driven.IndexHit
		var rank float64
		if err := rows.Scan(&hit.ChunkID, &rank); err != nil {
			return nil, fmt.Errorf("scanning fts hit: %w", err)
		}
		// FTS5 rank is better-is-more-negative BM25; flip so higher
		// score means more relevant.
		hit.Score = -rank
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fts hits: %w", err)
	}

	return hits, nil
}

// Has reports whether the index contains an entry for chunkID.
func (s *fullTextIndex) Has(ctx context.Context, chunkID string) (bool, error) {
	var count int
	err := s.store.q(ctx).QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks_fts WHERE chunk_id = ?", chunkID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking fts entry: %w", err)
	}
	return count > 0, nil
}

// Close closes the underlying database.
func (s *fullTextIndex) Close() error {
	return s.store.Close()
}

// buildMatchQuery turns free text into a safe FTS5 match expression:
// terms are extracted, quoted and OR-joined. Returns "" when nothing
// searchable remains.
func buildMatchQuery(query string) string {
	terms := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " OR ")
}
