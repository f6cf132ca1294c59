// Package cli implements the raglite command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/archon-labs/raglite/internal/adapters/driven/ai"
	"github.com/archon-labs/raglite/internal/adapters/driven/storage/sqlite"
	"github.com/archon-labs/raglite/internal/chunker"
	"github.com/archon-labs/raglite/internal/config"
	"github.com/archon-labs/raglite/internal/core/ports/driven"
	"github.com/archon-labs/raglite/internal/core/ports/driving"
	"github.com/archon-labs/raglite/internal/core/services"
	"github.com/archon-labs/raglite/internal/logger"
)

// Services wired by initServices and shared by all commands.
var (
	documentService driving.DocumentService
	searchService   driving.SearchService
	qaService       driving.QAService

	store    *sqlite.Store
	embedder driven.EmbeddingService
	llm      driven.LLMService
)

// Persistent flags.
var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "raglite",
	Short: "Local-first document indexing and retrieval",
	Long: `raglite indexes documents into a local SQLite database and serves
hybrid search (semantic + full-text) and question answering over them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		if skipServices(cmd) {
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		closeServices()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default ~/.raglite/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
}

// skipServices reports whether cmd runs without the service stack.
func skipServices(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return true
	}
	return false
}

// initServices builds the full service stack from configuration.
// Already-populated services (injected by tests) are left alone.
func initServices() error {
	if documentService != nil {
		return nil
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	store, err = sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	embedder, err = ai.CreateEmbeddingService(cfg.Embedding)
	if err != nil {
		return err
	}
	llm, err = ai.CreateLLMService(cfg.LLM)
	if err != nil {
		return err
	}

	splitter, err := chunker.New(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return err
	}

	chunkStore := store.ChunkStore()
	fulltext := store.FullTextIndex()

	var vectors driven.VectorIndex
	if embedder != nil {
		vectors = store.VectorIndex()
		// A provider with the wrong dimension would make every
		// persisted vector unsearchable; refuse to start.
		if err := services.ValidateVectorDimensions(context.Background(), vectors, embedder); err != nil {
			return err
		}
	}

	documentService = services.NewDocumentService(chunkStore, fulltext, vectors, embedder, splitter)
	searchService = services.NewSearchService(
		chunkStore, fulltext, vectors, embedder,
		cfg.Search.VectorWeight, cfg.Search.TextWeight,
	)
	qaService = services.NewQAService(searchService, llm)

	return nil
}

// closeServices releases everything initServices opened.
func closeServices() {
	if embedder != nil {
		embedder.Close()
	}
	if llm != nil {
		llm.Close()
	}
	if store != nil {
		store.Close()
	}
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
