// ABOUTME: HTTP API exposing document processing, Q&A and topics
// ABOUTME: Routes are served with chi; processing runs as background jobs
package api

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	openai "github.com/sashabaranov/go-openai"

	"github.com/callsight/callsight/internal/cache"
	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/index"
	"github.com/callsight/callsight/internal/logger"
	"github.com/callsight/callsight/internal/pipeline"
)

// LLM bundles the collaborators the query endpoints need. *llm.Client
// satisfies this.
type LLM interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
	Chat(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error)
}

// Server holds the serving state: processed documents, background jobs
// and a per-session answer cache.
type Server struct {
	cfg   *config.Config
	proc  *pipeline.Processor
	llm   LLM
	store *cache.Store
	jobs  *pipeline.JobStore

	mu      sync.RWMutex
	docs    map[string]*pipeline.Result
	answers map[string]askResponse
}

// NewServer wires a server from its collaborators.
func NewServer(cfg *config.Config, proc *pipeline.Processor, llm LLM, store *cache.Store) *Server {
	return &Server{
		cfg:     cfg,
		proc:    proc,
		llm:     llm,
		store:   store,
		jobs:    pipeline.NewJobStore(),
		docs:    make(map[string]*pipeline.Result),
		answers: make(map[string]askResponse),
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(bearerAuth(s.cfg.APIKey))
		}
		r.Post("/documents", s.handleUpload)
		r.Get("/documents/{docID}", s.handleGetDocument)
		r.Post("/documents/{docID}/ask", s.handleAsk)
		r.Get("/documents/{docID}/topics", s.handleTopics)
		r.Get("/jobs/{jobID}", s.handleGetJob)
	})
	return r
}

// ListenAndServe starts the server on the configured port.
func (s *Server) ListenAndServe() error {
	addr := ":" + s.cfg.Port
	logger.Infof("listening on %s", addr)
	return http.ListenAndServe(addr, s.Router())
}

// getDocument returns a served document, lazily loading it from the
// artifact cache if this process has not touched it yet.
func (s *Server) getDocument(docID string) (*pipeline.Result, bool) {
	s.mu.RLock()
	result, ok := s.docs[docID]
	s.mu.RUnlock()
	if ok {
		return result, true
	}

	if !s.store.IsValid(docID) {
		return nil, false
	}
	idx, err := index.New(s.cfg)
	if err != nil {
		logger.Errorf("index backend for %s: %v", docID, err)
		return nil, false
	}
	doc, err := s.store.Load(docID, idx.Load)
	if err != nil {
		logger.Errorf("loading cached document %s: %v", docID, err)
		return nil, false
	}
	result = &pipeline.Result{Doc: doc, Index: idx, CacheHit: true}
	s.registerDocument(result)
	return result, true
}

func (s *Server) registerDocument(result *pipeline.Result) {
	s.mu.Lock()
	s.docs[result.Doc.DocID] = result
	s.mu.Unlock()
}

// answerKey builds the session cache key for one question against one
// document.
func answerKey(docID, question string) string {
	return docID + "::" + strings.ToLower(strings.TrimSpace(question))
}

func (s *Server) cachedAnswer(key string) (askResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.answers[key]
	return resp, ok
}

func (s *Server) storeAnswer(key string, resp askResponse) {
	s.mu.Lock()
	s.answers[key] = resp
	s.mu.Unlock()
}
