// ABOUTME: Rule-based section splitter for earnings-call transcripts
// ABOUTME: Partitions lines into Metadata, Opening Remarks and Q&A
package segment

import (
	"regexp"
	"strings"

	"github.com/callsight/callsight/internal/fuzzy"
	"github.com/callsight/callsight/internal/models"
)

// speakerRegex matches a "Speaker Name: " prefix of capitalized name
// tokens followed by a colon and a space.
var speakerRegex = regexp.MustCompile(`^([A-Z][a-zA-Z\.]*(?:\s[A-Z][a-zA-Z\.]*)*):\s`)

// openingPhrases are ceremony phrases that mark the end of the header
// metadata when no moderator speaker line is present.
var openingPhrases = []string{
	"ladies and gentlemen",
	"good morning",
	"good afternoon",
	"good evening",
	"welcome everyone",
}

// qaCues are transition phrases that mark the start of the Q&A section.
var qaCues = []string{
	"first question",
	"we will now begin the q&a",
	"begin the question-and-answer",
	"let's open the line for questions",
	"we'll now take questions",
	"we'll move to q&a",
	"analysts may now ask their questions",
}

// Sections is the partition produced by Split. Lines keep their
// original order within each slice.
type Sections struct {
	Metadata []models.Line
	Opening  []models.Line
	QA       []models.Line
}

// Split partitions transcript lines into metadata, opening remarks and
// Q&A in a single left-to-right pass. The first line satisfying a
// boundary rule wins; later, higher-scoring lines are never preferred.
// When no boundary is found the whole document is metadata.
func Split(lines []models.Line) Sections {
	var metadata, remainder []models.Line
	boundaryFound := false

	for _, line := range lines {
		text := strings.TrimSpace(line.Text)

		// A moderator/coordinator speaker line always marks the boundary
		// and belongs to the remainder, not the metadata.
		if m := speakerRegex.FindStringSubmatch(text); m != nil {
			name := strings.ToLower(m[1])
			if strings.Contains(name, "moderator") || strings.Contains(name, "coordinator") {
				boundaryFound = true
				remainder = append(remainder, line)
				continue
			}
		}

		if boundaryFound {
			remainder = append(remainder, line)
			continue
		}

		if fuzzy.MatchesAny(strings.ToLower(text), openingPhrases, fuzzy.SectionBoundaryThreshold) {
			boundaryFound = true
			remainder = append(remainder, line)
		} else {
			metadata = append(metadata, line)
		}
	}

	if !boundaryFound {
		// Deliberate fallback: no opening detected, everything is metadata.
		return Sections{Metadata: metadata}
	}

	splitIdx := -1
	for i, line := range remainder {
		if fuzzy.MatchesAny(strings.ToLower(line.Text), qaCues, fuzzy.SectionBoundaryThreshold) {
			splitIdx = i
			break
		}
	}

	if splitIdx < 0 {
		return Sections{Metadata: metadata, Opening: remainder}
	}
	return Sections{
		Metadata: metadata,
		Opening:  remainder[:splitIdx],
		QA:       remainder[splitIdx:],
	}
}
