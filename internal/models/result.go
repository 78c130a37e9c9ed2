// ABOUTME: RetrievalResult is a ranked, provenance-tagged piece of evidence
// ABOUTME: Produced per query by the retriever, never persisted
package models

// RetrievalResult is one ranked hit returned by the retriever. In point
// mode ChunkIDs holds a single id; in window-merge mode it holds the
// ordered ids of every chunk merged into the evidence window.
type RetrievalResult struct {
	Score     float64 `json:"score"`
	ChunkIDs  []string `json:"chunk_ids"`
	Text      string  `json:"text"`
	Section   Section `json:"section"`
	Speaker   string  `json:"speaker,omitempty"`
	Role      Role    `json:"role,omitempty"`
	StartPage *int    `json:"start_page"`
	StartLine *int    `json:"start_line"`
	EndPage   *int    `json:"end_page"`
	EndLine   *int    `json:"end_line"`
}
