// ABOUTME: Post-chunking role tagger for Q&A chunks
// ABOUTME: Fuzzy-matches speakers against management participants
package segment

import (
	"strings"

	"github.com/callsight/callsight/internal/fuzzy"
	"github.com/callsight/callsight/internal/models"
)

// TagRoles assigns question/answer roles to every Q&A chunk in place.
// A chunk whose speaker partial-ratio matches any management name at or
// above the role threshold becomes an answer; every other Q&A chunk
// becomes a question. Chunks outside the Q&A section are untouched.
func TagRoles(chunks []models.Chunk, managementNames []string) {
	for i := range chunks {
		if chunks[i].Section != models.SectionQA {
			continue
		}
		speaker := strings.ToLower(chunks[i].Speaker)
		if speaker != "" && matchesManagement(speaker, managementNames) {
			chunks[i].Role = models.RoleAnswer
		} else {
			chunks[i].Role = models.RoleQuestion
		}
	}
}

func matchesManagement(speaker string, names []string) bool {
	for _, name := range names {
		if fuzzy.PartialRatio(speaker, name) >= fuzzy.RoleMatchThreshold {
			return true
		}
	}
	return false
}
