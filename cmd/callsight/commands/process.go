// ABOUTME: CLI command to process a transcript PDF into cached artifacts
// ABOUTME: Prints the document id, section sizes and chunk counts
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/callsight/callsight/internal/models"
)

// NewProcessCmd creates the process command.
func NewProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <transcript.pdf>",
		Short: "Process a transcript into a searchable index",
		Long: `Process an earnings-call transcript PDF: extract text, split it into
sections, chunk by speaker turn, tag Q&A roles, build the vector index
and cache all artifacts keyed by the document's content hash.

Examples:
  callsight process q2-earnings.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runProcess,
	}
}

func runProcess(cmd *cobra.Command, args []string) error {
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
	if result.CacheHit {
		fmt.Fprintf(out, "Document %s loaded from cache\n", doc.DocID)
	} else {
		fmt.Fprintf(out, "Document %s processed\n", doc.DocID)
	}
	if doc.Summary.Company != "" {
		fmt.Fprintf(out, "Company: %s\n", doc.Summary.Company)
	}
	fmt.Fprintf(out, "Pages:   %d\n", doc.Summary.TotalPages)
	fmt.Fprintf(out, "Chunks:  %d\n", len(doc.Chunks))
	for _, section := range []models.Section{models.SectionOpening, models.SectionQA} {
		fmt.Fprintf(out, "  %s: %d lines\n", section, len(doc.Sections[string(section)]))
	}
	return nil
}
