package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driven"
)

// stubSearch implements driving.SearchService with a canned response.
type stubSearch struct {
	resp *domain.SearchResponse
	err  error
}

func (m *stubSearch) Search(_ context.Context, _ string, _ domain.SearchOptions) (*domain.SearchResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

// stubLLM implements driven.LLMService, recording the chat messages.
type stubLLM struct {
	answer   string
	err      error
	messages []driven.ChatMessage
}

func (m *stubLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	return m.answer, m.err
}

func (m *stubLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.messages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *stubLLM) ModelName() string { return "stub-llm" }
func (m *stubLLM) Close() error      { return nil }

func qaResults() *domain.SearchResponse {
	return &domain.SearchResponse{
		Results: []domain.SearchResult{
			{
				Document: domain.Document{ID: "d1", Title: "Handbook"},
				Chunk:    domain.Chunk{ID: "c1", Content: "Vacation is 25 days per year."},
				Score:    0.9,
			},
		},
	}
}

func TestQAAnswer_GroundsInRetrievedContext(t *testing.T) {
	llm := &stubLLM{answer: "  25 days per year.  "}
	svc := NewQAService(&stubSearch{resp: qaResults()}, llm)

	answer, err := svc.Answer(context.Background(), "How much vacation do I get?")
	require.NoError(t, err)
	assert.Equal(t, "25 days per year.", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "c1", answer.Sources[0].Chunk.ID)

	// The prompt carries the retrieved chunk and the question.
	require.Len(t, llm.messages, 2)
	assert.Equal(t, "system", llm.messages[0].Role)
	assert.Contains(t, llm.messages[1].Content, "Vacation is 25 days per year.")
	assert.Contains(t, llm.messages[1].Content, "How much vacation do I get?")
}

func TestQAAnswer_NoLLMConfigured(t *testing.T) {
	svc := NewQAService(&stubSearch{resp: qaResults()}, nil)

	_, err := svc.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestQAAnswer_EmptyQuestion(t *testing.T) {
	svc := NewQAService(&stubSearch{resp: qaResults()}, &stubLLM{})

	_, err := svc.Answer(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQAAnswer_NoResultsSkipsLLM(t *testing.T) {
	llm := &stubLLM{answer: "should not be called"}
	svc := NewQAService(&stubSearch{resp: &domain.SearchResponse{}}, llm)

	answer, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)
	assert.Empty(t, answer.Sources)
	assert.Nil(t, llm.messages)
	assert.NotEmpty(t, answer.Text)
}

func TestQAAnswer_SearchFailurePropagates(t *testing.T) {
	svc := NewQAService(&stubSearch{err: domain.ErrSearchUnavailable}, &stubLLM{})

	_, err := svc.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrSearchUnavailable)
}

func TestQAAnswer_LLMFailure(t *testing.T) {
	svc := NewQAService(&stubSearch{resp: qaResults()}, &stubLLM{err: errors.New("model overloaded")})

	_, err := svc.Answer(context.Background(), "question")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestQAAnswer_CarriesDegradedFlag(t *testing.T) {
	resp := qaResults()
	resp.Degraded = true
	resp.FailedPath = domain.PathVector

	svc := NewQAService(&stubSearch{resp: resp}, &stubLLM{answer: "answer"})

	answer, err := svc.Answer(context.Background(), "question")
	require.NoError(t, err)
	assert.True(t, answer.Degraded)
}
