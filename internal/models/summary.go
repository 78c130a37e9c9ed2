// ABOUTME: DocumentSummary holds call-level metadata extracted by the LLM
// ABOUTME: Every field defaults to empty when extraction fails entirely
package models

import "strings"

// DocumentSummary is the metadata object produced by the extraction
// boundary. Empty strings stand in for fields the model could not find.
type DocumentSummary struct {
	Company      string   `json:"company"`
	CEO          string   `json:"ceo"`
	CallDate     string   `json:"call_date"`
	Ticker       string   `json:"ticker"`
	Participants []string `json:"participants"`
	TotalPages   int      `json:"total_pages"`
}

// ManagementNames returns the lower-cased names of the management
// participants, keeping only the text before the first comma of each
// participant string (the part before the role, e.g. "Jane Doe, CFO").
func (s *DocumentSummary) ManagementNames() []string {
	var names []string
	for _, p := range s.Participants {
		name, _, _ := strings.Cut(p, ",")
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
