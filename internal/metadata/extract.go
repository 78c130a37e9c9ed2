// ABOUTME: Document metadata extraction over header text and metadata chunks
// ABOUTME: Tolerant three-stage JSON parsing keeps model quirks from erroring
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	openai "github.com/sashabaranov/go-openai"

	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/retriever"
)

const (
	headerMaxPages = 2
	headerMaxLines = 400
	fieldTopK      = 8

	extractionMaxTokens = 500
)

// fieldQueries drive per-field retrieval over the metadata chunks. Kept
// as a slice so the context block order is stable across runs.
var fieldQueries = []struct {
	key   string
	query string
}{
	{"company", "What is the company name of the earnings call transcript?"},
	{"ceo", "Who is the CEO or main management person speaking on the call?"},
	{"call_date", "What is the date of the call? Return a human-readable date."},
	{"ticker", "What is the company ticker if mentioned?"},
	{"participants", "List the key management participants with their roles (e.g., CEO, CFO)."},
}

// Chatter is the language-generation collaborator.
type Chatter interface {
	Chat(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error)
}

// Extract pulls call-level metadata from the document. It combines the
// header text of the first pages with per-field retrieval over the
// metadata chunks, then asks the chat model for strict JSON. Any failure
// degrades to an all-empty summary; TotalPages is always populated.
func Extract(ctx context.Context, chatter Chatter, embedder retriever.Embedder, searcher retriever.Searcher, lines []models.Line, chunks []models.Chunk) models.DocumentSummary {
	summary := models.DocumentSummary{TotalPages: totalPages(lines)}

	contexts := []string{contextBlock("header", headerContext(lines))}
	pool := metadataChunks(chunks)
	r := retriever.New(embedder, fieldTopK, 0)
	for _, fq := range fieldQueries {
		results, err := r.Retrieve(ctx, fq.query, searcher, pool)
		if err != nil {
			continue
		}
		texts := make([]string, len(results))
		for i, res := range results {
			texts[i] = res.Text
		}
		contexts = append(contexts, contextBlock(fq.key, strings.Join(texts, "\n\n")))
	}

	system := "You extract factual metadata from earnings call context. " +
		"Use the header context when available. If unknown, return null. " +
		"Return strict JSON with keys: company, ceo, call_date, ticker, participants (array of strings)."
	instruction := "Extract metadata from the contexts. If a value is not present, use null.\nReturn ONLY JSON."

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: strings.Join(contexts, "\n\n")},
		{Role: openai.ChatMessageRoleUser, Content: instruction},
	}
	content, err := chatter.Chat(ctx, messages, 0, extractionMaxTokens)
	if err != nil {
		return summary
	}

	payload, ok := parsePayload(content)
	if !ok {
		return summary
	}
	summary.Company = deref(payload.Company)
	summary.CEO = deref(payload.CEO)
	summary.CallDate = deref(payload.CallDate)
	summary.Ticker = deref(payload.Ticker)
	summary.Participants = payload.Participants
	return summary
}

// payload mirrors the JSON shape the model is asked for. Pointers keep
// explicit nulls distinguishable from missing keys.
type payload struct {
	Company      *string  `json:"company"`
	CEO          *string  `json:"ceo"`
	CallDate     *string  `json:"call_date"`
	Ticker       *string  `json:"ticker"`
	Participants []string `json:"participants"`
}

// parsePayload runs the three-stage tolerant parse: strict JSON first,
// then single-quote normalization, then structural repair.
func parsePayload(content string) (payload, bool) {
	content = strings.TrimSpace(content)

	var p payload
	if err := json.Unmarshal([]byte(content), &p); err == nil {
		return p, true
	}

	normalized := strings.ReplaceAll(content, "'", `"`)
	p = payload{}
	if err := json.Unmarshal([]byte(normalized), &p); err == nil {
		return p, true
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return payload{}, false
	}
	p = payload{}
	if err := json.Unmarshal([]byte(repaired), &p); err != nil {
		return payload{}, false
	}
	return p, true
}

// headerContext gathers the text of the first pages, capped so a
// malformed extraction cannot flood the prompt.
func headerContext(lines []models.Line) string {
	header := make([]string, 0, headerMaxLines)
	for _, l := range lines {
		if l.Page > headerMaxPages {
			continue
		}
		header = append(header, l.Text)
		if len(header) == headerMaxLines {
			break
		}
	}
	return strings.Join(header, "\n")
}

func metadataChunks(chunks []models.Chunk) []models.Chunk {
	pool := make([]models.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if strings.Contains(c.ChunkID, "Metadata") {
			pool = append(pool, c)
		}
	}
	return pool
}

func totalPages(lines []models.Line) int {
	max := 0
	for _, l := range lines {
		if l.Page > max {
			max = l.Page
		}
	}
	return max
}

func contextBlock(key, value string) string {
	return fmt.Sprintf("[%s CONTEXT]\n%s", strings.ToUpper(key), value)
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
