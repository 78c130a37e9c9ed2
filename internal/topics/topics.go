// ABOUTME: Per-section topic and summary generation with tolerant parsing
// ABOUTME: Model output degrades to deterministic fallback blocks, never errors
package topics

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/callsight/callsight/internal/index"
	"github.com/callsight/callsight/internal/models"
)

// Fallback blocks returned when the model yields nothing usable.
const (
	FallbackBlock = "- Topic: General Overview\n  Summary: The transcript discusses general topics."
	EmptyBlock    = "- Topic: N/A\n  Summary: No content available."
)

const (
	generationTemperature = 0.2
	generationMaxTokens   = 1000
	sourcesPerTopic       = 3
)

var (
	topicRe   = regexp.MustCompile(`^-\s*Topic:\s*(.+)$`)
	summaryRe = regexp.MustCompile(`^\s*Summary:\s*(.+)$`)
)

// Chatter is the language-generation collaborator.
type Chatter interface {
	Chat(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error)
}

// Embedder turns text into vectors for provenance lookups.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// Searcher runs nearest-neighbor queries against the chunk index.
type Searcher interface {
	Search(ctx context.Context, vector []float64, topK int) ([]index.Hit, error)
}

// GenerateBlock asks the model for 5-7 topics over one section's lines
// and returns the raw formatted block. Empty sections and model failures
// map to fixed fallback blocks.
func GenerateBlock(ctx context.Context, chatter Chatter, lines []models.Line) string {
	texts := make([]string, 0, len(lines))
	for _, l := range lines {
		texts = append(texts, l.Text)
	}
	text := strings.Join(texts, "\n")
	if strings.TrimSpace(text) == "" {
		return EmptyBlock
	}
	if chatter == nil {
		return FallbackBlock
	}

	prompt := fmt.Sprintf(`Extract 5-7 business-relevant topics from the text below.
For each topic, generate a summary (4-5 sentences).
Ensure the response is non-empty and follows the exact format.

Transcript:
%s

Output format:
- Topic: <topic_name>
  Summary: <summary>`, text)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "Return concise, factual topics."},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}
	content, err := chatter.Chat(ctx, messages, generationTemperature, generationMaxTokens)
	if err != nil {
		return FallbackBlock
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return FallbackBlock
	}
	return content
}

// ParseBlock extracts topic/summary pairs from a formatted block. Items
// without a topic line are dropped; a missing summary is kept as empty.
func ParseBlock(block string) []models.TopicItem {
	var items []models.TopicItem
	var current models.TopicItem
	open := false

	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if m := topicRe.FindStringSubmatch(line); m != nil {
			if open {
				items = append(items, current)
			}
			current = models.TopicItem{Topic: strings.TrimSpace(m[1])}
			open = true
			continue
		}
		if m := summaryRe.FindStringSubmatch(line); m != nil {
			current.Summary = strings.TrimSpace(m[1])
			open = true
			continue
		}
	}
	if open {
		items = append(items, current)
	}

	kept := items[:0]
	for _, it := range items {
		if it.Topic != "" {
			kept = append(kept, it)
		}
	}
	return kept
}

// Sources maps each topic to its best supporting chunks. Every topic
// gets an entry, empty when the topic text is blank or lookups fail;
// provenance gaps never abort processing.
func Sources(ctx context.Context, embedder Embedder, searcher Searcher, items []models.TopicItem, pool []models.Chunk) [][]models.TopicSource {
	byID := make(map[string]int, len(pool))
	for i, c := range pool {
		byID[c.ChunkID] = i
	}

	sources := make([][]models.TopicSource, len(items))
	for i, item := range items {
		query := strings.TrimSpace(item.Topic + ". " + item.Summary)
		if item.Topic == "" && item.Summary == "" {
			sources[i] = []models.TopicSource{}
			continue
		}
		vectors, err := embedder.EmbedTexts(ctx, []string{query})
		if err != nil || len(vectors) != 1 {
			sources[i] = []models.TopicSource{}
			continue
		}
		hits, err := searcher.Search(ctx, vectors[0], sourcesPerTopic)
		if err != nil {
			sources[i] = []models.TopicSource{}
			continue
		}

		topicSources := make([]models.TopicSource, 0, len(hits))
		for _, h := range hits {
			idx, ok := byID[h.ChunkID]
			if !ok {
				if h.Position < 0 || h.Position >= len(pool) {
					continue
				}
				idx = h.Position
			}
			c := pool[idx]
			if strings.EqualFold(string(c.Role), "moderator") {
				continue
			}
			topicSources = append(topicSources, models.TopicSource{
				ChunkID:   c.ChunkID,
				Score:     h.Score,
				StartPage: c.StartPage,
				StartLine: c.StartLine,
				EndPage:   c.EndPage,
				EndLine:   c.EndLine,
			})
		}
		sources[i] = topicSources
	}
	return sources
}
