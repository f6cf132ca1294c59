package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Maintain the search indexes",
	Long:  `Rebuild or verify the full-text and vector indexes.`,
}

var indexRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild both indexes from stored chunks",
	Long: `Re-derives the full-text and vector indexes from the chunk store.
Partially indexed documents are re-embedded. Use this after an index
corruption or once a previously unreachable embedding provider is back.`,
	Args: cobra.NoArgs,
	RunE: runIndexRebuild,
}

var indexVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check index consistency against stored chunks",
	Args:  cobra.NoArgs,
	RunE:  runIndexVerify,
}

func init() {
	indexCmd.AddCommand(indexRebuildCmd)
	indexCmd.AddCommand(indexVerifyCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexRebuild(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.RebuildIndexes(context.Background()); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Println("Indexes rebuilt.")
	return nil
}

func runIndexVerify(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	report, err := documentService.Verify(context.Background())
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	cmd.Printf("Checked %d documents, %d chunks.\n", report.DocumentsChecked, report.ChunksChecked)

	if len(report.Inconsistent) == 0 {
		cmd.Println("Indexes are consistent.")
		return nil
	}

	cmd.Printf("%d documents have inconsistent index entries:\n", len(report.Inconsistent))
	for _, id := range report.Inconsistent {
		cmd.Printf("  %s\n", id)
	}
	cmd.Println("Run 'raglite index rebuild' to repair.")
	return nil
}
