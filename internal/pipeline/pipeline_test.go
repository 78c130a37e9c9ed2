// ABOUTME: End-to-end pipeline tests over a scripted transcript
// ABOUTME: Covers chunk ids, role tagging, topic fallbacks and cache round trips
package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callsight/callsight/internal/cache"
	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/models"
)

// fakeLLM answers metadata prompts with strict JSON and topic prompts
// with a formatted block, and embeds every text into a fixed dimension.
type fakeLLM struct {
	embedCalls int
	chatErr    error
}

func (f *fakeLLM) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	f.embedCalls++
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vectors[i] = []float64{1, float64(len(text)%7) + 1}
	}
	return vectors, nil
}

func (f *fakeLLM) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error) {
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if len(messages) > 0 && strings.Contains(messages[0].Content, "factual metadata") {
		return `{"company": "Acme Corporation", "ceo": "John Smith", "call_date": "July 30, 2026", "ticker": "ACME", "participants": ["John Smith, CEO"]}`, nil
	}
	return "- Topic: Revenue Growth\n  Summary: Revenue grew twelve percent.", nil
}

type fakeExtractor struct {
	lines []models.Line
	err   error
}

func (f *fakeExtractor) ExtractLines(data []byte) ([]models.Line, error) {
	return f.lines, f.err
}

func transcript() []models.Line {
	return []models.Line{
		{Text: "Acme Corporation Q2 2026 Earnings Call", Page: 1, LineNo: 1},
		{Text: "July 30, 2026", Page: 1, LineNo: 2},
		{Text: "Moderator: Good morning, ladies and gentlemen.", Page: 2, LineNo: 1},
		{Text: "John Smith: Thank you all for joining us today.", Page: 2, LineNo: 2},
		{Text: "We are pleased with our quarterly results.", Page: 2, LineNo: 3},
		{Text: "We will now begin the Q&A session.", Page: 3, LineNo: 1},
		{Text: "Operator: Our first question comes from Jane Doe.", Page: 3, LineNo: 2},
		{Text: "Jane Doe: What drove the revenue growth this quarter?", Page: 3, LineNo: 3},
		{Text: "John Smith: Revenue grew twelve percent on strong demand.", Page: 3, LineNo: 4},
		{Text: "Margins also improved.", Page: 4, LineNo: 1},
	}
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		ChunkSize:    500,
		ChunkOverlap: 50,
		TopK:         5,
		CacheDir:     t.TempDir(),
		IndexBackend: "memory",
	}
}

func newProcessor(t *testing.T, cfg *config.Config, llm *fakeLLM, extractor *fakeExtractor) (*Processor, *cache.Store) {
	store := cache.NewStore(cfg.CacheDir)
	return New(cfg, llm, extractor, store), store
}

func TestProcess_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	proc, store := newProcessor(t, cfg, &fakeLLM{}, &fakeExtractor{lines: transcript()})

	result, err := proc.Process(context.Background(), []byte("pdf bytes"))
	require.NoError(t, err)
	assert.False(t, result.CacheHit)

	doc := result.Doc
	assert.Equal(t, cache.DocID([]byte("pdf bytes")), doc.DocID)

	ids := make([]string, len(doc.Chunks))
	for i, c := range doc.Chunks {
		ids[i] = c.ChunkID
	}
	assert.Equal(t, []string{"Metadata_0", "Opening Remarks_1", "Q&A_1", "Q&A_2"}, ids)

	for _, c := range doc.Chunks {
		assert.NotContains(t, strings.ToLower(c.Text), "moderator")
	}

	byID := make(map[string]models.Chunk)
	for _, c := range doc.Chunks {
		byID[c.ChunkID] = c
	}
	assert.Equal(t, models.RoleQuestion, byID["Q&A_1"].Role)
	assert.Equal(t, "Jane Doe", byID["Q&A_1"].Speaker)
	assert.Equal(t, models.RoleAnswer, byID["Q&A_2"].Role)
	assert.Equal(t, models.Role(""), byID["Opening Remarks_1"].Role)

	assert.Equal(t, "Acme Corporation", doc.Summary.Company)
	assert.Equal(t, 4, doc.Summary.TotalPages)

	for _, section := range []string{string(models.SectionOpening), string(models.SectionQA)} {
		require.Len(t, doc.TopicItems[section], 1, section)
		assert.Equal(t, "Revenue Growth", doc.TopicItems[section][0].Topic)
		require.Len(t, doc.TopicSources[section], 1, section)
	}

	assert.True(t, store.IsValid(doc.DocID))
}

func TestProcess_SecondRunHitsCache(t *testing.T) {
	cfg := testConfig(t)
	llm := &fakeLLM{}
	proc, _ := newProcessor(t, cfg, llm, &fakeExtractor{lines: transcript()})

	first, err := proc.Process(context.Background(), []byte("pdf bytes"))
	require.NoError(t, err)
	callsAfterFirst := llm.embedCalls

	second, err := proc.Process(context.Background(), []byte("pdf bytes"))
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, llm.embedCalls, callsAfterFirst, "cache hit must not embed")

	assert.Equal(t, len(first.Doc.Chunks), len(second.Doc.Chunks))
	for i := range first.Doc.Chunks {
		assert.Equal(t, first.Doc.Chunks[i].ChunkID, second.Doc.Chunks[i].ChunkID)
		assert.Equal(t, first.Doc.Chunks[i].Role, second.Doc.Chunks[i].Role)
	}
}

func TestProcess_ExtractionFailureIsFatal(t *testing.T) {
	cfg := testConfig(t)
	proc, store := newProcessor(t, cfg, &fakeLLM{}, &fakeExtractor{err: errors.New("unreadable pdf")})

	_, err := proc.Process(context.Background(), []byte("broken"))
	require.Error(t, err)
	assert.False(t, store.IsValid(cache.DocID([]byte("broken"))), "no partial cache on extraction failure")
}

func TestProcess_ChatFailureStillProcesses(t *testing.T) {
	cfg := testConfig(t)
	proc, store := newProcessor(t, cfg, &fakeLLM{chatErr: errors.New("model down")}, &fakeExtractor{lines: transcript()})

	result, err := proc.Process(context.Background(), []byte("pdf bytes"))
	require.NoError(t, err)

	doc := result.Doc
	// Metadata degrades to empty fields, everyone becomes a questioner.
	assert.Empty(t, doc.Summary.Company)
	assert.Equal(t, 4, doc.Summary.TotalPages)
	byID := make(map[string]models.Chunk)
	for _, c := range doc.Chunks {
		byID[c.ChunkID] = c
	}
	assert.Equal(t, models.RoleQuestion, byID["Q&A_2"].Role)

	// Topic generation falls back to the deterministic block.
	for _, section := range []string{string(models.SectionOpening), string(models.SectionQA)} {
		require.Len(t, doc.TopicItems[section], 1)
		assert.Equal(t, "General Overview", doc.TopicItems[section][0].Topic)
	}
	assert.True(t, store.IsValid(doc.DocID))
}

func TestProcess_EmptyDocumentShortCircuits(t *testing.T) {
	cfg := testConfig(t)
	// No boundary phrase anywhere, so the whole document is metadata and
	// no speaker chunks exist.
	lines := []models.Line{{Text: "Cover page only.", Page: 1, LineNo: 1}}
	llm := &fakeLLM{}
	proc, store := newProcessor(t, cfg, llm, &fakeExtractor{lines: lines})

	result, err := proc.Process(context.Background(), []byte("cover"))
	require.NoError(t, err)
	require.Len(t, result.Doc.Chunks, 1)
	assert.Equal(t, "Metadata_0", result.Doc.Chunks[0].ChunkID)
	assert.True(t, store.IsValid(result.Doc.DocID))
}
