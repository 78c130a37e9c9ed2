// ABOUTME: Chunker producing metadata word windows and merged speaker turns
// ABOUTME: Carries SpeakerState across sections for exclusion and suppression rules
package segment

import (
	"fmt"
	"strings"

	"github.com/callsight/callsight/internal/models"
)

const (
	// DefaultChunkSize is the metadata window size in words.
	DefaultChunkSize = 500
	// DefaultOverlap is the word overlap between consecutive metadata windows.
	DefaultOverlap = 50
)

// SpeakerState is the mutable scan state threaded across section
// processing. It is created once per document, passed into the
// Opening Remarks chunking call and then into the Q&A call, and never
// reset in between.
type SpeakerState struct {
	ModeratorFound  bool
	FirstSpeaker    string
	ExcludeSpeakers map[string]struct{}
}

// NewSpeakerState returns a fresh per-document state.
func NewSpeakerState() *SpeakerState {
	return &SpeakerState{ExcludeSpeakers: make(map[string]struct{})}
}

func (s *SpeakerState) excluded(speaker string) bool {
	_, ok := s.ExcludeSpeakers[speaker]
	return ok
}

// suppressed reports whether a paragraph for speaker must be dropped at
// flush time: the very first speaker of the document is suppressed for
// as long as no moderator line has been observed. The check is keyed on
// document-level state at flush time, so the same speaker's later
// paragraphs survive once a moderator has appeared.
func (s *SpeakerState) suppressed(speaker string) bool {
	return !s.ModeratorFound && speaker == s.FirstSpeaker
}

// ChunkMetadata flattens the metadata lines into one word sequence and
// emits fixed windows of size words advancing by size-overlap each
// step. The final window is truncated at the end of the sequence and
// terminates the loop. Metadata chunks carry no provenance span.
func ChunkMetadata(lines []models.Line, size, overlap, startID int) ([]models.Chunk, int) {
	var words []string
	for _, line := range lines {
		words = append(words, strings.Fields(line.Text)...)
	}

	var chunks []models.Chunk
	id := startID
	start := 0
	for start < len(words) {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, models.Chunk{
			ChunkID: fmt.Sprintf("Metadata_%d", id),
			Text:    strings.Join(words[start:end], " "),
			Section: models.SectionMetadata,
		})
		id++

		if end == len(words) {
			break
		}
		start = end - overlap
	}
	return chunks, id
}

// SpeakerChunks merges one section's lines into per-speaker paragraphs,
// applying the moderator, first-question and first-speaker rules. The
// given state is mutated in place; callers are responsible for
// processing Opening Remarks before Q&A with the same state.
func SpeakerChunks(lines []models.Line, section models.Section, startID int, state *SpeakerState) ([]models.Chunk, int) {
	var merged []models.Chunk
	var para []string
	var currentSpeaker string
	var startPage, startLine, endPage, endLine int

	id := startID

	flush := func() {
		if !state.excluded(currentSpeaker) && !state.suppressed(currentSpeaker) {
			merged = append(merged, newSpeakerChunk(section, id, currentSpeaker,
				strings.Join(para, " "), startPage, startLine, endPage, endLine))
		}
		// The counter advances even for suppressed or excluded flushes so
		// ids stay stable across reprocessing.
		id++
		para = nil
	}

	for _, line := range lines {
		text := strings.TrimSpace(line.Text)

		// Moderator turns are pure noise downstream; record the sighting
		// and drop the line entirely.
		if strings.Contains(strings.ToLower(text), "moderator") {
			state.ModeratorFound = true
			continue
		}

		if m := speakerRegex.FindStringSubmatch(text); m != nil {
			speaker := strings.TrimSpace(m[1])
			textAfter := strings.TrimSpace(text[len(m[0]):])

			// The very first speaker of the document is captured once and
			// never overwritten.
			if state.FirstSpeaker == "" {
				state.FirstSpeaker = speaker
			}

			// An operator introducing the Q&A segment with speaker-formatted
			// text is not a real contribution; exclude the speaker from here
			// on. Chunks already flushed for them are not retracted.
			if strings.Contains(strings.ToLower(textAfter), "first question") {
				state.ExcludeSpeakers[speaker] = struct{}{}
				continue
			}

			if len(para) > 0 && validSpeaker(currentSpeaker) {
				flush()
			}

			currentSpeaker = speaker
			startPage, startLine = line.Page, line.LineNo
			endPage, endLine = line.Page, line.LineNo
			if textAfter != "" {
				para = append(para, textAfter)
			}
			continue
		}

		// Continuation line: extend the open paragraph for a known,
		// non-excluded speaker.
		if validSpeaker(currentSpeaker) && !state.excluded(currentSpeaker) {
			para = append(para, text)
			endPage, endLine = line.Page, line.LineNo
		}
	}

	// Trailing paragraph. The original sequencing leaves the counter
	// untouched here; section prefixes keep the ids unique.
	if len(para) > 0 && validSpeaker(currentSpeaker) && !state.excluded(currentSpeaker) {
		if !state.suppressed(currentSpeaker) {
			merged = append(merged, newSpeakerChunk(section, id, currentSpeaker,
				strings.Join(para, " "), startPage, startLine, endPage, endLine))
		}
	}

	return merged, id
}

func validSpeaker(speaker string) bool {
	return speaker != "" && speaker != "Unknown"
}

func newSpeakerChunk(section models.Section, id int, speaker, text string, sp, sl, ep, el int) models.Chunk {
	startPage, startLine, endPage, endLine := sp, sl, ep, el
	return models.Chunk{
		ChunkID:   fmt.Sprintf("%s_%d", section, id),
		Speaker:   speaker,
		Text:      strings.TrimSpace(text),
		Section:   section,
		StartPage: &startPage,
		StartLine: &startLine,
		EndPage:   &endPage,
		EndLine:   &endLine,
	}
}
