package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-labs/raglite/internal/config"
	"github.com/archon-labs/raglite/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateEmbeddingService(config.ProviderConfig{})
		require.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("ollama", func(t *testing.T) {
		svc, err := CreateEmbeddingService(config.ProviderConfig{
			Provider: ProviderOllama, Model: "nomic-embed-text", Dimensions: 768,
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.Equal(t, "nomic-embed-text", svc.ModelName())
		assert.Equal(t, 768, svc.Dimensions())
	})

	t.Run("openai without key", func(t *testing.T) {
		_, err := CreateEmbeddingService(config.ProviderConfig{Provider: ProviderOpenAI})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := CreateEmbeddingService(config.ProviderConfig{Provider: "cohere"})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestCreateLLMService(t *testing.T) {
	t.Run("unconfigured returns nil", func(t *testing.T) {
		svc, err := CreateLLMService(config.ProviderConfig{})
		require.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("ollama", func(t *testing.T) {
		svc, err := CreateLLMService(config.ProviderConfig{
			Provider: ProviderOllama, Model: "llama3.2",
		})
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.Equal(t, "llama3.2", svc.ModelName())
	})

	t.Run("openai without key", func(t *testing.T) {
		_, err := CreateLLMService(config.ProviderConfig{Provider: ProviderOpenAI})
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := CreateLLMService(config.ProviderConfig{Provider: "bedrock"})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}
