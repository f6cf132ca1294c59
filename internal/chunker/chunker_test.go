package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/archon-labs/raglite/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		c, err := New(100, 20)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Size() != 100 || c.Overlap() != 20 {
			t.Errorf("expected size=100 overlap=20, got size=%d overlap=%d", c.Size(), c.Overlap())
		}
	})

	t.Run("overlap equals size", func(t *testing.T) {
		_, err := New(100, 100)
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("overlap exceeds size", func(t *testing.T) {
		_, err := New(100, 150)
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("zero size", func(t *testing.T) {
		_, err := New(0, 0)
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("negative overlap", func(t *testing.T) {
		_, err := New(100, -1)
		if !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestChunk_Empty(t *testing.T) {
	c, _ := New(10, 2)

	if got := c.Chunk(""); got != nil {
		t.Errorf("empty text should produce no chunks, got %d", len(got))
	}
	if got := c.Chunk("   \n\t  "); got != nil {
		t.Errorf("whitespace-only text should produce no chunks, got %d", len(got))
	}
}

func TestChunk_ShortText(t *testing.T) {
	c, _ := New(100, 10)

	chunks := c.Chunk("A short sentence.")
	if len(chunks) != 1 {
		t.Fatalf("expected exactly one chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "A short sentence." {
		t.Errorf("unexpected chunk text: %q", chunks[0].Text)
	}
	if chunks[0].TokenCount != 3 {
		t.Errorf("expected 3 tokens, got %d", chunks[0].TokenCount)
	}
}

func TestChunk_SentenceScenario(t *testing.T) {
	// Two-sentence budget with a one-sentence overlap over a three
	// sentence document: expect two chunks, the second starting at the
	// second sentence.
	c, err := New(6, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks := c.Chunk("The cat sat. The dog ran. The cat slept.")
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[1].Text, "The dog ran.") {
		t.Errorf("second chunk should start with the second sentence, got %q", chunks[1].Text)
	}

	assertOverlapTokens(t, chunks, 3)
}

func TestChunk_MaxSizeInvariant(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta epsilon. ", 50)

	cases := []struct {
		name    string
		size    int
		overlap int
	}{
		{"small chunks", 8, 2},
		{"no overlap", 10, 0},
		{"large overlap", 20, 15},
		{"single token chunks", 2, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.size, tc.overlap)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			chunks := c.Chunk(text)
			if len(chunks) == 0 {
				t.Fatal("expected chunks")
			}
			for i, ch := range chunks {
				if ch.TokenCount > tc.size {
					t.Errorf("chunk %d has %d tokens, exceeds size %d", i, ch.TokenCount, tc.size)
				}
				if got := Count(ch.Text); got != ch.TokenCount {
					t.Errorf("chunk %d reports %d tokens but contains %d", i, ch.TokenCount, got)
				}
			}

			assertOverlapTokens(t, chunks, tc.overlap)
			assertReconstruction(t, text, chunks, tc.overlap)
		})
	}
}

func TestChunk_SentenceBoundaryPreferred(t *testing.T) {
	// The budget lands mid-sentence; the chunker should back up to the
	// sentence end inside the search window.
	c, _ := New(8, 2)

	chunks := c.Chunk("One two three four five six. Seven eight nine ten eleven twelve.")
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, "six.") {
		t.Errorf("first chunk should end at the sentence boundary, got %q", chunks[0].Text)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c, _ := New(16, 4)
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 20)

	first := c.Chunk(text)
	second := c.Chunk(text)

	if len(first) != len(second) {
		t.Fatalf("chunk count differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

// assertOverlapTokens verifies each chunk after the first begins with
// exactly the trailing overlap tokens of its predecessor.
func assertOverlapTokens(t *testing.T, chunks []Segment, overlap int) {
	t.Helper()

	for i := 1; i < len(chunks); i++ {
		prev := Tokenize(chunks[i-1].Text)
		cur := Tokenize(chunks[i].Text)
		if len(prev) < overlap || len(cur) < overlap {
			t.Fatalf("chunk %d smaller than overlap %d", i, overlap)
		}
		for j := 0; j < overlap; j++ {
			want := prev[len(prev)-overlap+j].Text
			got := cur[j].Text
			if want != got {
				t.Errorf("chunk %d overlap token %d: expected %q, got %q", i, j, want, got)
			}
		}
	}
}

// assertReconstruction verifies that concatenating chunk tokens, with
// the overlap dropped from each chunk after the first, reproduces the
// original token sequence.
func assertReconstruction(t *testing.T, text string, chunks []Segment, overlap int) {
	t.Helper()

	var rebuilt []string
	for i, ch := range chunks {
		toks := Tokenize(ch.Text)
		if i > 0 {
			toks = toks[overlap:]
		}
		for _, tok := range toks {
			rebuilt = append(rebuilt, tok.Text)
		}
	}

	original := Tokenize(text)
	if len(rebuilt) != len(original) {
		t.Fatalf("rebuilt %d tokens, original has %d", len(rebuilt), len(original))
	}
	for i := range original {
		if rebuilt[i] != original[i].Text {
			t.Errorf("token %d: expected %q, got %q", i, original[i].Text, rebuilt[i])
		}
	}
}

func TestTokenize_Offsets(t *testing.T) {
	text := "  hello   world  "
	tokens := Tokenize(text)

	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	for _, tok := range tokens {
		if text[tok.Start:tok.End] != tok.Text {
			t.Errorf("offsets do not slice back to token: %q vs %q", text[tok.Start:tok.End], tok.Text)
		}
	}
}
