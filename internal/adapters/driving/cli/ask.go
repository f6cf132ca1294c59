package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/archon-labs/raglite/internal/core/domain"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question using indexed documents",
	Long: `Retrieves the most relevant chunks for the question and asks the
configured language model for an answer grounded in them. Sources are
listed after the answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]

	if qaService == nil {
		return errors.New("qa service not configured")
	}

	answer, err := qaService.Answer(context.Background(), question)
	if err != nil {
		if errors.Is(err, domain.ErrLLMUnavailable) {
			return errors.New("no LLM provider configured (set [llm] in the config file)")
		}
		return fmt.Errorf("answering question: %w", err)
	}

	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for i := range answer.Sources {
			src := &answer.Sources[i]
			title := src.Document.Title
			if title == "" {
				title = src.Document.URI
			}
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, src.Score)
		}
	}

	if answer.Degraded {
		cmd.Println()
		cmd.Println("Note: retrieval ran in degraded mode, the answer may be incomplete.")
	}
	return nil
}
