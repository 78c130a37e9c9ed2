// ABOUTME: TopicItem and TopicSource model per-section topic summaries
// ABOUTME: Parsed from unstructured model output and linked back to chunks
package models

// TopicItem is one topic/summary pair parsed from a model-generated
// topic block.
type TopicItem struct {
	Topic   string `json:"topic"`
	Summary string `json:"summary"`
}

// TopicSource links a topic back to a supporting chunk with its
// retrieval score and provenance span.
type TopicSource struct {
	ChunkID   string  `json:"chunk_id"`
	Score     float64 `json:"score"`
	StartPage *int    `json:"start_page"`
	StartLine *int    `json:"start_line"`
	EndPage   *int    `json:"end_page"`
	EndLine   *int    `json:"end_line"`
}
