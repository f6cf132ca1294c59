package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driven"
	"github.com/archon-labs/raglite/internal/core/ports/driving"
	"github.com/archon-labs/raglite/internal/logger"
)

// Ensure QAService implements the interface.
var _ driving.QAService = (*QAService)(nil)

// qaContextLimit is how many retrieved chunks ground an answer.
const qaContextLimit = 5

// qaSystemPrompt instructs the model to stay inside the retrieved
// context.
const qaSystemPrompt = `You are a helpful assistant answering questions about a document corpus.
Answer using ONLY the provided context. If the context does not contain
the answer, say so plainly instead of guessing. Be concise.`

// QAService answers questions over the indexed corpus: retrieve with
// hybrid search, then generate an answer grounded in the retrieved
// chunks. Session state, if any, is caller-owned.
type QAService struct {
	search driving.SearchService
	llm    driven.LLMService
}

// NewQAService creates a question-answering service.
// llm is optional; without it Answer fails with ErrLLMUnavailable.
func NewQAService(search driving.SearchService, llm driven.LLMService) *QAService {
	return &QAService{search: search, llm: llm}
}

// Answer retrieves context for the question and generates an answer.
func (s *QAService) Answer(ctx context.Context, question string) (*driving.Answer, error) {
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	resp, err := s.search.Search(ctx, question, domain.SearchOptions{Limit: qaContextLimit})
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}

	if len(resp.Results) == 0 {
		return &driving.Answer{
			Text:     "No relevant documents were found for this question.",
			Degraded: resp.Degraded,
		}, nil
	}

	logger.Debug("QA: %d context chunks for %q", len(resp.Results), question)

	prompt := buildQAPrompt(question, resp.Results)
	answer, err := s.llm.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: qaSystemPrompt},
		{Role: "user", Content: prompt},
	}, driven.ChatOptions{Temperature: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, err)
	}

	return &driving.Answer{
		Text:     strings.TrimSpace(answer),
		Sources:  resp.Results,
		Degraded: resp.Degraded,
	}, nil
}

// buildQAPrompt assembles retrieved chunks into a context block.
func buildQAPrompt(question string, results []domain.SearchResult) string {
	var b strings.Builder
	b.WriteString("Context:\n\n")
	for i, res := range results {
		fmt.Fprintf(&b, "[%d] %s\n%s\n\n", i+1, res.Document.Title, res.Chunk.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
