// ABOUTME: Root command wiring for the callsight CLI
// ABOUTME: Shared setup for config, LLM client and the artifact cache
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/callsight/callsight/internal/cache"
	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/extract"
	"github.com/callsight/callsight/internal/llm"
	"github.com/callsight/callsight/internal/pipeline"
)

var configFile string

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callsight",
		Short: "Index and question earnings-call transcripts",
		Long: `Callsight processes earnings-call transcript PDFs into a searchable
index with speaker attribution, then answers questions strictly from
the transcript with page and line citations.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML config file")

	cmd.AddCommand(NewProcessCmd())
	cmd.AddCommand(NewAskCmd())
	cmd.AddCommand(NewTopicsCmd())
	cmd.AddCommand(NewInfoCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// setup loads configuration and wires the processing stack. Every
// subcommand that touches a document goes through here.
func setup() (*config.Config, *pipeline.Processor, *llm.Client, *cache.Store, error) {
	_ = godotenv.Load()

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("creating LLM client: %w", err)
	}

	store := cache.NewStore(cfg.CacheDir)
	proc := pipeline.New(cfg, client, extract.PDFExtractor{}, store)
	return cfg, proc, client, store, nil
}
