// Package chunker splits document text into overlapping token-bounded
// segments, preferring sentence boundaries where possible.
package chunker

import (
	"fmt"

	"github.com/archon-labs/raglite/internal/core/domain"
)

// DefaultChunkSize is the default number of tokens per chunk.
const DefaultChunkSize = 256

// DefaultChunkOverlap is the default number of overlapping tokens.
const DefaultChunkOverlap = 32

// Segment is one chunk of text produced by the chunker.
type Segment struct {
	// Text is the chunk content, cut as a contiguous slice of the input.
	Text string

	// TokenCount is the number of tokens in Text.
	TokenCount int
}

// Chunker splits text into overlapping token-bounded segments.
// It is stateless: Chunk is a pure function of its inputs.
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. size and overlap are token counts.
// overlap >= size is a configuration error and fails fast.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrInvalidConfig, overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d", domain.ErrInvalidConfig, overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the configured chunk size in tokens.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap in tokens.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into ordered segments of at most Size tokens.
// Each segment after the first repeats the trailing Overlap tokens of
// the previous segment. Empty text yields an empty slice.
func (c *Chunker) Chunk(text string) []Segment {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	if len(tokens) <= c.size {
		return []Segment{{
			Text:       text[tokens[0].Start:tokens[len(tokens)-1].End],
			TokenCount: len(tokens),
		}}
	}

	var segments []Segment
	start := 0

	for start < len(tokens) {
		end := start + c.size
		if end >= len(tokens) {
			end = len(tokens)
		} else {
			end = c.splitPoint(tokens, start, end)
		}

		segments = append(segments, Segment{
			Text:       text[tokens[start].Start:tokens[end-1].End],
			TokenCount: end - start,
		})

		if end >= len(tokens) {
			break
		}
		start = end - c.overlap
	}

	return segments
}

// splitPoint searches backwards from the token-budget boundary for a
// sentence end, falling back to the hard boundary when none is found
// close enough. The search window is the trailing half of the chunk
// so a boundary adjustment never strands the cursor.
func (c *Chunker) splitPoint(tokens []Token, start, end int) int {
	window := c.size / 2
	if window < 1 {
		window = 1
	}

	// A shrunken chunk must still advance past the overlap.
	floor := start + c.overlap + 1
	if low := end - window; low > floor {
		floor = low
	}

	for i := end - 1; i >= floor; i-- {
		if endsSentence(tokens[i]) {
			return i + 1
		}
	}

	return end
}
