// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"fmt"

	ollamaembed "github.com/archon-labs/raglite/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/archon-labs/raglite/internal/adapters/driven/embedding/openai"
	ollamallm "github.com/archon-labs/raglite/internal/adapters/driven/llm/ollama"
	openaillm "github.com/archon-labs/raglite/internal/adapters/driven/llm/openai"
	"github.com/archon-labs/raglite/internal/config"
	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driven"
)

// Provider names accepted in configuration.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// CreateEmbeddingService creates the embedding service selected by cfg.
// Returns nil when no provider is configured: the system then runs
// full-text only.
func CreateEmbeddingService(cfg config.ProviderConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "":
		return nil, nil

	case ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil

	case ProviderOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrInvalidConfig, cfg.Provider)
	}
}

// CreateLLMService creates the LLM service selected by cfg.
// Returns nil when no provider is configured: question answering is
// then disabled while retrieval keeps working.
func CreateLLMService(cfg config.ProviderConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case "":
		return nil, nil

	case ProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	case ProviderOpenAI:
		svc, err := openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", domain.ErrInvalidConfig, cfg.Provider)
	}
}
