// ABOUTME: CLI command to show per-section topics of a transcript
// ABOUTME: Lists topic summaries with their supporting chunks
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/callsight/callsight/internal/models"
)

// NewTopicsCmd creates the topics command.
func NewTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics <transcript.pdf>",
		Short: "Show the topics discussed in a transcript",
		Long: `Show the topics extracted per section, each with a short summary and
the chunks that support it. The document is processed first if its
artifacts are not cached yet.`,
		Args: cobra.ExactArgs(1),
		RunE: runTopics,
	}
}

func runTopics(cmd *cobra.Command, args []string) error {
	_, proc, _, _, err := setup()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	result, err := proc.Process(context.Background(), data)
	if err != nil {
		return fmt.Errorf("processing %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	doc := result.Doc
	for _, section := range []models.Section{models.SectionOpening, models.SectionQA} {
		name := string(section)
		items := doc.TopicItems[name]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s\n", name)
		sources := doc.TopicSources[name]
		for i, item := range items {
			fmt.Fprintf(out, "  - %s\n", item.Topic)
			if item.Summary != "" {
				fmt.Fprintf(out, "    %s\n", item.Summary)
			}
			if i < len(sources) {
				for _, src := range sources[i] {
					fmt.Fprintf(out, "    [%s score %.2f]\n", src.ChunkID, src.Score)
				}
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}
