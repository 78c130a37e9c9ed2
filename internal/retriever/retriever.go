// ABOUTME: Query-time retrieval over an indexed chunk pool
// ABOUTME: Supports point hits and merged context windows with provenance
package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/callsight/callsight/internal/index"
	"github.com/callsight/callsight/internal/models"
)

// Embedder turns query text into vectors. *llm.Client satisfies this.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// Searcher runs nearest-neighbor queries. index.Index satisfies this.
type Searcher interface {
	Search(ctx context.Context, vector []float64, topK int) ([]index.Hit, error)
}

// Retriever embeds questions and resolves index hits back to chunks.
type Retriever struct {
	embedder      Embedder
	topK          int
	contextWindow int
}

// New returns a retriever with the given ranking parameters.
func New(embedder Embedder, topK, contextWindow int) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if contextWindow < 0 {
		contextWindow = 0
	}
	return &Retriever{embedder: embedder, topK: topK, contextWindow: contextWindow}
}

// AnswerPool filters a chunk pool down to management answers. The chat
// path searches only these so questions never cite themselves.
func AnswerPool(chunks []models.Chunk) []models.Chunk {
	pool := make([]models.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if strings.EqualFold(string(c.Role), string(models.RoleAnswer)) {
			pool = append(pool, c)
		}
	}
	return pool
}

// Retrieve runs point-mode retrieval: each hit maps to exactly one chunk,
// preserving the index's rank order. A blank question returns no results
// and never touches the embedder or the index.
func (r *Retriever) Retrieve(ctx context.Context, query string, searcher Searcher, pool []models.Chunk) ([]models.RetrievalResult, error) {
	hits, err := r.search(ctx, query, searcher)
	if err != nil || hits == nil {
		return nil, err
	}

	byID := poolIndex(pool)
	results := make([]models.RetrievalResult, 0, len(hits))
	for _, h := range hits {
		idx, ok := resolve(h, byID, len(pool))
		if !ok {
			continue
		}
		c := pool[idx]
		results = append(results, models.RetrievalResult{
			Score:     h.Score,
			ChunkIDs:  []string{c.ChunkID},
			Text:      c.Text,
			Section:   c.Section,
			Speaker:   c.Speaker,
			Role:      c.Role,
			StartPage: c.StartPage,
			StartLine: c.StartLine,
			EndPage:   c.EndPage,
			EndLine:   c.EndLine,
		})
	}
	return results, nil
}

// RetrieveWindows runs window-merge retrieval: each hit expands to its
// neighboring chunks, overlapping windows collapse into one evidence
// block, and merged blocks are re-ranked by their best member score.
func (r *Retriever) RetrieveWindows(ctx context.Context, query string, searcher Searcher, pool []models.Chunk) ([]models.RetrievalResult, error) {
	hits, err := r.search(ctx, query, searcher)
	if err != nil || hits == nil {
		return nil, err
	}

	byID := poolIndex(pool)
	windows := make([]window, 0, len(hits))
	for _, h := range hits {
		idx, ok := resolve(h, byID, len(pool))
		if !ok {
			continue
		}
		start := idx - r.contextWindow
		if start < 0 {
			start = 0
		}
		end := idx + r.contextWindow + 1
		if end > len(pool) {
			end = len(pool)
		}
		windows = append(windows, window{start: start, end: end, score: h.Score, seed: idx})
	}

	merged := mergeWindows(windows)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].score > merged[j].score })
	if len(merged) > r.topK {
		merged = merged[:r.topK]
	}

	results := make([]models.RetrievalResult, 0, len(merged))
	for _, w := range merged {
		results = append(results, buildWindowResult(w, pool))
	}
	return results, nil
}

// window is a half-open [start, end) slice of the chunk pool. seed is the
// pool index of the member that earned the window's score.
type window struct {
	start, end int
	score      float64
	seed       int
}

// mergeWindows collapses overlapping or adjacent windows, keeping the
// best score among merged members. Input order does not matter.
func mergeWindows(windows []window) []window {
	if len(windows) == 0 {
		return nil
	}
	sort.SliceStable(windows, func(i, j int) bool { return windows[i].start < windows[j].start })

	merged := []window{windows[0]}
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		if w.start <= last.end {
			if w.end > last.end {
				last.end = w.end
			}
			if w.score > last.score {
				last.score = w.score
				last.seed = w.seed
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

func buildWindowResult(w window, pool []models.Chunk) models.RetrievalResult {
	members := pool[w.start:w.end]
	texts := make([]string, len(members))
	ids := make([]string, len(members))
	for i, c := range members {
		texts[i] = c.Text
		ids[i] = c.ChunkID
	}
	seed := pool[w.seed]
	first, last := members[0], members[len(members)-1]
	return models.RetrievalResult{
		Score:     w.score,
		ChunkIDs:  ids,
		Text:      strings.Join(texts, " "),
		Section:   seed.Section,
		Speaker:   seed.Speaker,
		Role:      seed.Role,
		StartPage: first.StartPage,
		StartLine: first.StartLine,
		EndPage:   last.EndPage,
		EndLine:   last.EndLine,
	}
}

// search handles the blank-query short circuit and the embed step. A nil
// hit slice with a nil error means the query was blank.
func (r *Retriever) search(ctx context.Context, query string, searcher Searcher) ([]index.Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	vectors, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding returned %d vectors for one query", len(vectors))
	}
	hits, err := searcher.Search(ctx, vectors[0], r.topK)
	if err != nil {
		return nil, fmt.Errorf("index search: %w", err)
	}
	if hits == nil {
		hits = []index.Hit{}
	}
	return hits, nil
}

func poolIndex(pool []models.Chunk) map[string]int {
	byID := make(map[string]int, len(pool))
	for i, c := range pool {
		byID[c.ChunkID] = i
	}
	return byID
}

// resolve maps a hit back to a pool position. Chunk ids are authoritative
// so a pool filtered after indexing cannot misattribute evidence; the
// stored position is only a fallback for indexes without payloads.
func resolve(h index.Hit, byID map[string]int, poolLen int) (int, bool) {
	if h.ChunkID != "" {
		idx, ok := byID[h.ChunkID]
		return idx, ok
	}
	if h.Position >= 0 && h.Position < poolLen {
		return h.Position, true
	}
	return 0, false
}
