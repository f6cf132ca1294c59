package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archon-labs/raglite/internal/core/domain"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultChunkSize, cfg.Chunking.Size)
	assert.Equal(t, DefaultChunkOverlap, cfg.Chunking.Overlap)
	assert.Equal(t, DefaultVectorWeight, cfg.Search.VectorWeight)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, cfg.Chunking.Size)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/tmp/raglite-test"

[chunking]
size = 128
overlap = 16

[search]
vector_weight = 0.7
text_weight = 0.3

[embedding]
provider = "openai"
model = "text-embedding-3-small"
dimensions = 1536
`), 0600))

	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/raglite-test", cfg.DataDir)
	assert.Equal(t, 128, cfg.Chunking.Size)
	assert.Equal(t, 16, cfg.Chunking.Overlap)
	assert.Equal(t, 0.7, cfg.Search.VectorWeight)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	// API key overlays from the environment.
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("chunking = nonsense ["), 0600))

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_EnvDataDir(t *testing.T) {
	t.Setenv("RAGLITE_DATA_DIR", "/tmp/env-data")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-data", cfg.DataDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }},
		{"negative overlap", func(c *Config) { c.Chunking.Overlap = -1 }},
		{"overlap not below size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }},
		{"negative weight", func(c *Config) { c.Search.TextWeight = -0.1 }},
		{"all weights zero", func(c *Config) {
			c.Search.VectorWeight = 0
			c.Search.TextWeight = 0
		}},
		{"embedding without dimensions", func(c *Config) { c.Embedding.Dimensions = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, domain.ErrInvalidConfig)
		})
	}
}

func TestValidate_DisabledEmbeddingSkipsDimensions(t *testing.T) {
	cfg := Default()
	cfg.Embedding.Provider = ""
	cfg.Embedding.Dimensions = 0
	assert.NoError(t, cfg.Validate())
}
