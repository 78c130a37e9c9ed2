// ABOUTME: HTTP handlers for uploads, document queries and topics
// ABOUTME: All responses are JSON; failures map to status payloads
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/callsight/callsight/internal/answer"
	"github.com/callsight/callsight/internal/logger"
	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/retriever"
)

const maxUploadBytes = 50 << 20

type errorResponse struct {
	Error string `json:"error"`
}

type uploadResponse struct {
	JobID string `json:"job_id"`
}

type documentResponse struct {
	DocID      string                 `json:"doc_id"`
	Summary    models.DocumentSummary `json:"summary"`
	ChunkCount int                    `json:"chunk_count"`
	Sections   map[string]int         `json:"section_line_counts"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer   answer.Answer            `json:"answer"`
	Evidence []models.RetrievalResult `json:"evidence"`
}

type topicsResponse struct {
	Topics  map[string][]models.TopicItem     `json:"topics"`
	Sources map[string][][]models.TopicSource `json:"sources"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload accepts a transcript PDF, either as a multipart "file"
// field or as the raw request body, and processes it in the background.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, err := readUpload(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty upload"})
		return
	}

	job := s.jobs.Create()
	go s.runJob(job.ID, data)
	writeJSON(w, http.StatusAccepted, uploadResponse{JobID: job.ID})
}

// runJob processes one uploaded document and records the outcome on its
// job. Detached from the request context so client disconnects do not
// abort processing.
func (s *Server) runJob(jobID string, data []byte) {
	s.jobs.Start(jobID)
	result, err := s.proc.Process(context.Background(), data)
	if err != nil {
		logger.Errorf("processing job %s: %v", jobID, err)
		s.jobs.Fail(jobID, err.Error())
		return
	}
	s.registerDocument(result)
	s.jobs.Complete(jobID, result.Doc.DocID)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(chi.URLParam(r, "jobID"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "job not found"})
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	result, ok := s.getDocument(docID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "document not found"})
		return
	}

	sections := make(map[string]int, len(result.Doc.Sections))
	for name, lines := range result.Doc.Sections {
		sections[name] = len(lines)
	}
	writeJSON(w, http.StatusOK, documentResponse{
		DocID:      result.Doc.DocID,
		Summary:    result.Doc.Summary,
		ChunkCount: len(result.Doc.Chunks),
		Sections:   sections,
	})
}

// handleAsk answers a question over the document's management answers.
// Repeat questions are served from the session cache.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	result, ok := s.getDocument(docID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "document not found"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	key := answerKey(docID, req.Question)
	if resp, hit := s.cachedAnswer(key); hit {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	pool := retriever.AnswerPool(result.Doc.Chunks)
	retr := retriever.New(s.llm, s.cfg.TopK, s.cfg.ContextWindow)
	evidence, err := retr.RetrieveWindows(r.Context(), req.Question, result.Index, pool)
	if err != nil {
		logger.Warnf("retrieval for %s failed: %v", docID, err)
		evidence = nil
	}
	ans := answer.Generate(r.Context(), s.llm, req.Question, evidence)

	resp := askResponse{Answer: ans, Evidence: evidence}
	s.storeAnswer(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	result, ok := s.getDocument(docID)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "document not found"})
		return
	}
	writeJSON(w, http.StatusOK, topicsResponse{
		Topics:  result.Doc.TopicItems,
		Sources: result.Doc.TopicSources,
	})
}

// readUpload pulls document bytes from a multipart form when present,
// otherwise from the raw body.
func readUpload(r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(r.Body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("encoding response: %v", err)
	}
}
