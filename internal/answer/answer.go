// ABOUTME: Grounded answer generation over retrieved transcript evidence
// ABOUTME: Wraps the chat model with a strict refusal and citation contract
package answer

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/callsight/callsight/internal/models"
)

// Refusal strings returned instead of model output when generation
// cannot be grounded. Callers may match on these exact values.
const (
	RefusalNoContext  = "I'm unable to find relevant context for this question."
	RefusalEmpty      = "I'm unable to find a confident answer in the provided transcript."
	RefusalGeneration = "I'm unable to generate an answer at the moment."
)

const (
	generationTemperature = 0.2
	generationMaxTokens   = 300
)

// Chatter is the language-generation collaborator. *llm.Client
// satisfies this.
type Chatter interface {
	Chat(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error)
}

// Answer is the user-facing result of one question.
type Answer struct {
	Answer     string   `json:"answer"`
	Sources    []string `json:"sources"`
	Confidence float64  `json:"confidence"`
}

// Generate answers a question strictly from the given evidence. Every
// failure mode degrades to a refusal payload; it never returns an error.
func Generate(ctx context.Context, chatter Chatter, question string, evidence []models.RetrievalResult) Answer {
	if len(evidence) == 0 {
		return format(RefusalNoContext, evidence)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "Be concise, factual, and avoid hallucinations."},
		{Role: openai.ChatMessageRoleUser, Content: buildPrompt(question, evidence)},
	}
	content, err := chatter.Chat(ctx, messages, generationTemperature, generationMaxTokens)
	if err != nil {
		return format(RefusalGeneration, evidence)
	}
	return format(content, evidence)
}

func buildPrompt(question string, evidence []models.RetrievalResult) string {
	blocks := make([]string, len(evidence))
	for i, e := range evidence {
		blocks[i] = fmt.Sprintf("[%s] (%s) %s", joinIDs(e.ChunkIDs), spanLabel(e), e.Text)
	}

	var b strings.Builder
	b.WriteString("You are a careful assistant. Answer the question strictly using the context.\n")
	b.WriteString("- If the answer is not in the context, reply: \"I don't have enough information in the transcript to answer.\"\n")
	b.WriteString("- Keep the answer concise (4-5 sentences), factual, and avoid fabrications.\n")
	b.WriteString("- Do not mention being an AI model.\n\n")
	b.WriteString("Context:\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

// format applies the post-processing contract: blank text becomes the
// fixed refusal, sources render as page/line citations, and confidence
// is the best evidence score.
func format(text string, evidence []models.RetrievalResult) Answer {
	text = strings.TrimSpace(text)
	if text == "" {
		text = RefusalEmpty
	}

	sources := make([]string, 0, len(evidence))
	confidence := 0.0
	for _, e := range evidence {
		sources = append(sources, formatSource(e))
		if e.Score > confidence {
			confidence = e.Score
		}
	}
	return Answer{Answer: text, Sources: sources, Confidence: confidence}
}

func formatSource(e models.RetrievalResult) string {
	id := joinIDs(e.ChunkIDs)
	if e.StartPage == nil || e.EndPage == nil {
		return fmt.Sprintf("Chunk %s", id)
	}
	if *e.StartPage == *e.EndPage {
		return fmt.Sprintf("p.%d L%d-%d (Chunk %s)", *e.StartPage, deref(e.StartLine), deref(e.EndLine), id)
	}
	return fmt.Sprintf("p.%d L%d - p.%d L%d (Chunk %s)", *e.StartPage, deref(e.StartLine), *e.EndPage, deref(e.EndLine), id)
}

func spanLabel(e models.RetrievalResult) string {
	if e.StartPage == nil || e.EndPage == nil {
		return "no span"
	}
	return fmt.Sprintf("p.%d L%d - p.%d L%d", *e.StartPage, deref(e.StartLine), *e.EndPage, deref(e.EndLine))
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ", ")
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
