// ABOUTME: Chunk is the atomic retrievable unit of transcript text
// ABOUTME: Carries section, speaker, Q&A role and page/line provenance span
package models

// Section identifies which part of the transcript a line or chunk
// belongs to. The values double as chunk id prefixes.
type Section string

const (
	SectionMetadata Section = "Metadata"
	SectionOpening  Section = "Opening Remarks"
	SectionQA       Section = "Q&A"
)

// IsValid reports whether s is one of the three known sections.
func (s Section) IsValid() bool {
	switch s {
	case SectionMetadata, SectionOpening, SectionQA:
		return true
	}
	return false
}

// Role marks a Q&A chunk as a question or an answer. Chunks outside the
// Q&A section never carry a role.
type Role string

const (
	RoleQuestion Role = "question"
	RoleAnswer   Role = "answer"
)

// Chunk is a merged speaker turn or a metadata word window. Span fields
// are nil for metadata chunks, which have no stable provenance.
type Chunk struct {
	ChunkID   string  `json:"chunk_id"`
	Text      string  `json:"text"`
	Section   Section `json:"section"`
	Speaker   string  `json:"speaker,omitempty"`
	Role      Role    `json:"role,omitempty"`
	StartPage *int    `json:"start_page"`
	StartLine *int    `json:"start_line"`
	EndPage   *int    `json:"end_page"`
	EndLine   *int    `json:"end_line"`
}

// HasSpan reports whether the chunk tracks a provenance span.
func (c *Chunk) HasSpan() bool {
	return c.StartPage != nil && c.EndPage != nil
}
