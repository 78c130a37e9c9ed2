// ABOUTME: CLI command to show call-level metadata of a transcript
// ABOUTME: Prints company, CEO, date, ticker and participants
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewInfoCmd creates the info command.
func NewInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <transcript.pdf>",
		Short: "Show call metadata for a transcript",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
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
	s := result.Doc.Summary
	fmt.Fprintf(out, "Document: %s\n", result.Doc.DocID)
	fmt.Fprintf(out, "Company:  %s\n", orUnknown(s.Company))
	fmt.Fprintf(out, "CEO:      %s\n", orUnknown(s.CEO))
	fmt.Fprintf(out, "Date:     %s\n", orUnknown(s.CallDate))
	fmt.Fprintf(out, "Ticker:   %s\n", orUnknown(s.Ticker))
	fmt.Fprintf(out, "Pages:    %d\n", s.TotalPages)
	if len(s.Participants) > 0 {
		fmt.Fprintln(out, "Participants:")
		for _, p := range s.Participants {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
