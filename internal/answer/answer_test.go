// ABOUTME: Tests for the answer generation and citation contract
// ABOUTME: Verifies refusal fallbacks, source rendering and confidence scoring
package answer

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/callsight/callsight/internal/models"
)

type fakeChatter struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (f *fakeChatter) Chat(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, maxTokens int) (string, error) {
	f.calls++
	if len(messages) > 0 {
		f.prompt = messages[len(messages)-1].Content
	}
	return f.reply, f.err
}

func intPtr(v int) *int { return &v }

func evidence() []models.RetrievalResult {
	return []models.RetrievalResult{
		{
			Score:     0.82,
			ChunkIDs:  []string{"Q&A_3"},
			Text:      "Revenue grew twelve percent year over year.",
			Section:   models.SectionQA,
			Speaker:   "John Smith",
			Role:      models.RoleAnswer,
			StartPage: intPtr(4),
			StartLine: intPtr(10),
			EndPage:   intPtr(4),
			EndLine:   intPtr(14),
		},
		{
			Score:     0.6,
			ChunkIDs:  []string{"Q&A_4", "Q&A_5"},
			Text:      "Guidance remains unchanged for the full year.",
			Section:   models.SectionQA,
			StartPage: intPtr(5),
			StartLine: intPtr(2),
			EndPage:   intPtr(6),
			EndLine:   intPtr(8),
		},
	}
}

func TestGenerate_FormatsAnswerAndSources(t *testing.T) {
	chatter := &fakeChatter{reply: "Revenue grew twelve percent."}
	ans := Generate(context.Background(), chatter, "How did revenue do?", evidence())

	if ans.Answer != "Revenue grew twelve percent." {
		t.Errorf("answer = %q", ans.Answer)
	}
	if ans.Confidence != 0.82 {
		t.Errorf("confidence = %v, want 0.82", ans.Confidence)
	}
	if len(ans.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(ans.Sources))
	}
	if ans.Sources[0] != "p.4 L10-14 (Chunk Q&A_3)" {
		t.Errorf("same-page source = %q", ans.Sources[0])
	}
	if ans.Sources[1] != "p.5 L2 - p.6 L8 (Chunk Q&A_4, Q&A_5)" {
		t.Errorf("page-range source = %q", ans.Sources[1])
	}
	if !strings.Contains(chatter.prompt, "How did revenue do?") {
		t.Error("prompt missing the question")
	}
	if !strings.Contains(chatter.prompt, "[Q&A_3]") {
		t.Error("prompt missing the evidence block")
	}
}

func TestGenerate_EmptyEvidenceRefusesWithoutModelCall(t *testing.T) {
	chatter := &fakeChatter{reply: "should not be used"}
	ans := Generate(context.Background(), chatter, "anything", nil)

	if chatter.calls != 0 {
		t.Errorf("chat model called %d times for empty evidence, want 0", chatter.calls)
	}
	if ans.Answer != RefusalNoContext {
		t.Errorf("answer = %q, want refusal", ans.Answer)
	}
	if ans.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", ans.Confidence)
	}
	if len(ans.Sources) != 0 {
		t.Errorf("sources = %v, want none", ans.Sources)
	}
}

func TestGenerate_ChatFailureDegradesToRefusal(t *testing.T) {
	chatter := &fakeChatter{err: errors.New("model unavailable")}
	ans := Generate(context.Background(), chatter, "q", evidence())

	if ans.Answer != RefusalGeneration {
		t.Errorf("answer = %q, want generation refusal", ans.Answer)
	}
	if ans.Confidence != 0.82 {
		t.Errorf("confidence = %v, want max evidence score", ans.Confidence)
	}
	if len(ans.Sources) != 2 {
		t.Errorf("sources should survive a generation failure, got %v", ans.Sources)
	}
}

func TestGenerate_BlankModelOutputBecomesRefusal(t *testing.T) {
	chatter := &fakeChatter{reply: "   \n"}
	ans := Generate(context.Background(), chatter, "q", evidence())
	if ans.Answer != RefusalEmpty {
		t.Errorf("answer = %q, want empty-output refusal", ans.Answer)
	}
}

func TestFormatSource_NilSpanFallsBackToChunkID(t *testing.T) {
	src := formatSource(models.RetrievalResult{ChunkIDs: []string{"Metadata_0"}})
	if src != "Chunk Metadata_0" {
		t.Errorf("source = %q, want chunk-id fallback", src)
	}
}
