// ABOUTME: Tests for metadata extraction and tolerant JSON parsing
// ABOUTME: Covers the three repair stages and the all-empty failure default
package metadata

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/callsight/callsight/internal/index"
	"github.com/callsight/callsight/internal/models"
)

type fakeChatter struct {
	reply    string
	err      error
	messages []openai.ChatCompletionMessage
}

func (f *fakeChatter) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error) {
	f.messages = messages
	return f.reply, f.err
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{1}
	}
	return vectors, nil
}

type fakeSearcher struct{ hits []index.Hit }

func (f *fakeSearcher) Search(ctx context.Context, vector []float64, topK int) ([]index.Hit, error) {
	return f.hits, nil
}

func transcriptLines() []models.Line {
	return []models.Line{
		{Text: "Acme Corporation Q2 2026 Earnings Call", Page: 1, LineNo: 1},
		{Text: "July 30, 2026", Page: 1, LineNo: 2},
		{Text: "John Smith, Chief Executive Officer", Page: 2, LineNo: 1},
		{Text: "Operator: welcome everyone.", Page: 3, LineNo: 1},
		{Text: "Closing remarks.", Page: 9, LineNo: 1},
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    payload
		ok      bool
	}{
		{
			name:    "strict json",
			content: `{"company": "Acme", "ceo": "John Smith", "call_date": "July 30, 2026", "ticker": "ACME", "participants": ["John Smith, CEO"]}`,
			want: payload{
				Company:      strPtr("Acme"),
				CEO:          strPtr("John Smith"),
				CallDate:     strPtr("July 30, 2026"),
				Ticker:       strPtr("ACME"),
				Participants: []string{"John Smith, CEO"},
			},
			ok: true,
		},
		{
			name:    "single quoted json",
			content: `{'company': 'Acme', 'ceo': null, 'call_date': null, 'ticker': null, 'participants': []}`,
			want:    payload{Company: strPtr("Acme"), Participants: []string{}},
			ok:      true,
		},
		{
			name:    "truncated json repaired",
			content: `{"company": "Acme", "ceo": "John Smith", "participants": ["John Smith, CEO"`,
			want: payload{
				Company:      strPtr("Acme"),
				CEO:          strPtr("John Smith"),
				Participants: []string{"John Smith, CEO"},
			},
			ok: true,
		},
		{
			name:    "no json at all",
			content: "",
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parsePayload(tt.content)
			if ok != tt.ok {
				t.Fatalf("parsePayload() ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parsePayload() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtract_PopulatesSummary(t *testing.T) {
	chatter := &fakeChatter{reply: `{"company": "Acme Corporation", "ceo": "John Smith", "call_date": "July 30, 2026", "ticker": "ACME", "participants": ["John Smith, CEO", "Jane Doe, CFO"]}`}
	chunks := []models.Chunk{
		{ChunkID: "Metadata_0", Text: "Acme Corporation Q2 2026 Earnings Call", Section: models.SectionMetadata},
		{ChunkID: "Q&A_1", Text: "should not be searched", Section: models.SectionQA},
	}
	searcher := &fakeSearcher{hits: []index.Hit{{Position: 0, ChunkID: "Metadata_0", Score: 0.9}}}

	summary := Extract(context.Background(), chatter, fakeEmbedder{}, searcher, transcriptLines(), chunks)

	if summary.Company != "Acme Corporation" || summary.CEO != "John Smith" {
		t.Errorf("summary = %+v", summary)
	}
	if summary.TotalPages != 9 {
		t.Errorf("TotalPages = %d, want 9", summary.TotalPages)
	}
	if len(summary.Participants) != 2 {
		t.Errorf("Participants = %v", summary.Participants)
	}

	names := summary.ManagementNames()
	if !reflect.DeepEqual(names, []string{"john smith", "jane doe"}) {
		t.Errorf("ManagementNames() = %v", names)
	}
}

func TestExtract_ChatFailureReturnsEmptyDefault(t *testing.T) {
	chatter := &fakeChatter{err: errors.New("unavailable")}
	summary := Extract(context.Background(), chatter, fakeEmbedder{}, &fakeSearcher{}, transcriptLines(), nil)

	if summary.Company != "" || summary.CEO != "" || summary.Ticker != "" || summary.CallDate != "" {
		t.Errorf("expected empty fields, got %+v", summary)
	}
	if len(summary.Participants) != 0 {
		t.Errorf("expected no participants, got %v", summary.Participants)
	}
	if summary.TotalPages != 9 {
		t.Errorf("TotalPages should still be derived from lines, got %d", summary.TotalPages)
	}
}

func TestExtract_UnparseableOutputReturnsEmptyDefault(t *testing.T) {
	chatter := &fakeChatter{reply: "I could not find any metadata, sorry!"}
	summary := Extract(context.Background(), chatter, fakeEmbedder{}, &fakeSearcher{}, transcriptLines(), nil)
	if summary.Company != "" || len(summary.Participants) != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}

func TestExtract_PromptCarriesHeaderAndFieldContexts(t *testing.T) {
	chatter := &fakeChatter{reply: `{}`}
	chunks := []models.Chunk{{ChunkID: "Metadata_0", Text: "header block text", Section: models.SectionMetadata}}
	searcher := &fakeSearcher{hits: []index.Hit{{Position: 0, ChunkID: "Metadata_0", Score: 0.9}}}

	Extract(context.Background(), chatter, fakeEmbedder{}, searcher, transcriptLines(), chunks)

	if len(chatter.messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(chatter.messages))
	}
	contextMsg := chatter.messages[1].Content
	if !strings.Contains(contextMsg, "[HEADER CONTEXT]") {
		t.Error("missing header context block")
	}
	if !strings.Contains(contextMsg, "Acme Corporation Q2 2026 Earnings Call") {
		t.Error("header context missing first-page text")
	}
	if strings.Contains(contextMsg, "Closing remarks.") {
		t.Error("header context leaked pages past the cap")
	}
	if !strings.Contains(contextMsg, "[COMPANY CONTEXT]") || !strings.Contains(contextMsg, "[PARTICIPANTS CONTEXT]") {
		t.Error("missing field context blocks")
	}
}

func TestHeaderContext_CapsLineCount(t *testing.T) {
	lines := make([]models.Line, 500)
	for i := range lines {
		lines[i] = models.Line{Text: "x", Page: 1, LineNo: i + 1}
	}
	header := headerContext(lines)
	if got := len(strings.Split(header, "\n")); got != headerMaxLines {
		t.Errorf("header kept %d lines, want %d", got, headerMaxLines)
	}
}

func strPtr(s string) *string { return &s }
