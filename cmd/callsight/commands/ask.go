// ABOUTME: CLI command to ask a question against a processed transcript
// ABOUTME: Prints the grounded answer with page/line citations and confidence
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/callsight/callsight/internal/answer"
	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/retriever"
)

var (
	askTopK          int
	askContextWindow int
	askPointMode     bool
)

// NewAskCmd creates the ask command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <transcript.pdf> <question>",
		Short: "Ask a question about a transcript",
		Long: `Ask a question against a processed transcript. The document is
processed first if its artifacts are not cached yet. Retrieval runs
over the management answers and merges neighboring turns into evidence
windows unless --point is set.

Examples:
  callsight ask q2-earnings.pdf "How did revenue develop?"
  callsight ask --top-k 3 q2-earnings.pdf "What is the full-year guidance?"`,
		Args: cobra.ExactArgs(2),
		RunE: runAsk,
	}

	cmd.Flags().IntVar(&askTopK, "top-k", 0, "Number of results to return (default from config)")
	cmd.Flags().IntVar(&askContextWindow, "context-window", -1, "Neighboring chunks per hit (default from config)")
	cmd.Flags().BoolVar(&askPointMode, "point", false, "Return single chunks instead of merged windows")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, proc, client, _, err := setup()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	question := args[1]

	ctx := context.Background()
	result, err := proc.Process(ctx, data)
	if err != nil {
		return fmt.Errorf("processing %s: %w", args[0], err)
	}

	topK := cfg.TopK
	if askTopK > 0 {
		topK = askTopK
	}
	contextWindow := cfg.ContextWindow
	if askContextWindow >= 0 {
		contextWindow = askContextWindow
	}

	pool := retriever.AnswerPool(result.Doc.Chunks)
	retr := retriever.New(client, topK, contextWindow)

	var evidence []models.RetrievalResult
	if askPointMode {
		evidence, err = retr.Retrieve(ctx, question, result.Index, pool)
	} else {
		evidence, err = retr.RetrieveWindows(ctx, question, result.Index, pool)
	}
	if err != nil {
		evidence = nil
	}

	ans := answer.Generate(ctx, client, question, evidence)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ans.Answer)
	if len(ans.Sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, src := range ans.Sources {
			fmt.Fprintf(out, "  %s\n", src)
		}
	}
	fmt.Fprintf(out, "\nConfidence: %.2f\n", ans.Confidence)
	return nil
}
