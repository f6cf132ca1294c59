package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/archon-labs/raglite/internal/core/domain"
	"github.com/archon-labs/raglite/internal/core/ports/driving"
)

var (
	addTitle     string
	addURI       string
	addOverwrite bool
)

var addCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Add a document to the index",
	Long: `Reads a file, splits it into chunks and indexes it for search.
The file path becomes the document URI unless --uri is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addTitle, "title", "", "document title (defaults to the file name)")
	addCmd.Flags().StringVar(&addURI, "uri", "", "document URI (defaults to the file path)")
	addCmd.Flags().BoolVar(&addOverwrite, "overwrite", false, "replace an existing document with the same URI")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	path := args[0]

	if documentService == nil {
		return errors.New("document service not configured")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	uri := addURI
	if uri == "" {
		uri, err = filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", path, err)
		}
	}

	title := addTitle
	if title == "" {
		title = filepath.Base(path)
	}

	doc, err := documentService.Create(context.Background(), driving.CreateRequest{
		URI:       uri,
		Title:     title,
		Content:   string(content),
		Overwrite: addOverwrite,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("%s is already indexed (use --overwrite to replace it)", uri)
		}
		return fmt.Errorf("adding document: %w", err)
	}

	cmd.Printf("Added %s (%s)\n", doc.URI, doc.ID)
	if doc.Status == domain.StatusPartial {
		cmd.Println("Warning: embeddings unavailable, document is full-text searchable only.")
		cmd.Println("Run 'raglite index rebuild' once the embedding provider is reachable.")
	}
	return nil
}
