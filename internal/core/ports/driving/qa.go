package driving

import (
	"context"

	"github.com/archon-labs/raglite/internal/core/domain"
)

// QAService answers questions over the indexed corpus.
type QAService interface {
	// Answer retrieves relevant chunks for the question and produces an
	// answer grounded in them. The supporting results are returned with
	// the answer so callers can cite sources.
	Answer(ctx context.Context, question string) (*Answer, error)
}

// Answer is a generated answer with its supporting retrieval.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources are the retrieved chunks the answer was grounded in,
	// in fused relevance order.
	Sources []domain.SearchResult

	// Degraded is true when retrieval ran with one path unavailable.
	Degraded bool
}
