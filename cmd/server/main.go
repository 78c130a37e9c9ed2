// ABOUTME: Main entry point for the callsight HTTP API server
// ABOUTME: Wires config, LLM client, cache store and pipeline into the router
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/callsight/callsight/internal/api"
	"github.com/callsight/callsight/internal/cache"
	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/extract"
	"github.com/callsight/callsight/internal/llm"
	"github.com/callsight/callsight/internal/logger"
	"github.com/callsight/callsight/internal/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Debugf("no .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("loading config: %v", err)
	}
	if os.Getenv("OPENAI_API_KEY") == "" && cfg.OpenAIKey == "" {
		logger.Warnf("OPENAI_API_KEY not set, embedding and answering will fail")
	}

	client, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("creating LLM client: %v", err)
	}

	store := cache.NewStore(cfg.CacheDir)
	proc := pipeline.New(cfg, client, extract.PDFExtractor{}, store)
	server := api.NewServer(cfg, proc, client, store)

	if err := server.ListenAndServe(); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
