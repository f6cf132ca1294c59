// Package config loads and validates raglite configuration.
//
// Configuration is an explicit object passed to service constructors;
// core logic never performs ambient lookups. Values come from a TOML
// file with environment variables (including a .env file) overriding
// provider credentials.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/archon-labs/raglite/internal/core/domain"
)

// Default values.
const (
	DefaultChunkSize    = 256
	DefaultChunkOverlap = 32
	DefaultVectorWeight = 0.5
	DefaultTextWeight   = 0.5
	DefaultDimensions   = 768
)

// Config holds all raglite settings.
type Config struct {
	// DataDir is where the SQLite database lives.
	// Defaults to ~/.raglite/data.
	DataDir string `toml:"data_dir"`

	Chunking  ChunkingConfig `toml:"chunking"`
	Search    SearchConfig   `toml:"search"`
	Embedding ProviderConfig `toml:"embedding"`
	LLM       ProviderConfig `toml:"llm"`
}

// ChunkingConfig controls document splitting.
type ChunkingConfig struct {
	// Size is the maximum chunk size in tokens.
	Size int `toml:"size"`

	// Overlap is the number of tokens repeated between consecutive
	// chunks. Must be smaller than Size.
	Overlap int `toml:"overlap"`
}

// SearchConfig controls rank fusion.
type SearchConfig struct {
	// VectorWeight scales the normalised vector-path score.
	VectorWeight float64 `toml:"vector_weight"`

	// TextWeight scales the normalised lexical-path score.
	TextWeight float64 `toml:"text_weight"`
}

// ProviderConfig selects and configures an external provider.
// Provider selection happens here, at construction time - never by
// runtime type inspection.
type ProviderConfig struct {
	// Provider is "ollama", "openai", or "" to disable.
	Provider string `toml:"provider"`

	// Model is the provider-specific model name.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// APIKey authenticates against hosted providers. Usually supplied
	// via environment rather than the config file.
	APIKey string `toml:"api_key"`

	// Dimensions is the embedding vector size. Embedding only.
	Dimensions int `toml:"dimensions"`
}

// Default returns a configuration with all defaults applied.
func Default() Config {
	return Config{
		Chunking: ChunkingConfig{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Search: SearchConfig{
			VectorWeight: DefaultVectorWeight,
			TextWeight:   DefaultTextWeight,
		},
		Embedding: ProviderConfig{
			Provider:   "ollama",
			Dimensions: DefaultDimensions,
		},
		LLM: ProviderConfig{
			Provider: "ollama",
		},
	}
}

// Load reads configuration from path, overlaying defaults.
// A missing file is not an error: defaults plus environment apply.
// An empty path uses ~/.raglite/config.toml.
func Load(path string) (Config, error) {
	cfg := Default()

	// Pull in a .env file if present; real environment wins.
	_ = godotenv.Load()

	if path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, ".raglite", "config.toml")
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// Defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("reading config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays provider credentials from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		if cfg.Embedding.Provider == "openai" && cfg.Embedding.APIKey == "" {
			cfg.Embedding.APIKey = v
		}
		if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = v
		}
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		if cfg.Embedding.Provider == "ollama" && cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = v
		}
		if cfg.LLM.Provider == "ollama" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = v
		}
	}
	if v := os.Getenv("RAGLITE_DATA_DIR"); v != "" && cfg.DataDir == "" {
		cfg.DataDir = v
	}
}

// Validate checks configuration relationships.
// Violations are fatal at startup, before any store is opened.
func (c Config) Validate() error {
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidConfig, c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", domain.ErrInvalidConfig, c.Chunking.Overlap, c.Chunking.Size)
	}
	if c.Search.VectorWeight < 0 || c.Search.TextWeight < 0 {
		return fmt.Errorf("%w: fusion weights must not be negative", domain.ErrInvalidConfig)
	}
	if c.Search.VectorWeight+c.Search.TextWeight <= 0 {
		return fmt.Errorf("%w: at least one fusion weight must be positive", domain.ErrInvalidConfig)
	}
	if c.Embedding.Provider != "" && c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive, got %d", domain.ErrInvalidConfig, c.Embedding.Dimensions)
	}
	return nil
}
