// ABOUTME: Qdrant-backed vector index over a minimal REST client
// ABOUTME: Assumes cosine distance and recreates the collection on build
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// QdrantConfig contains connection details for a Qdrant instance.
type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// QdrantIndex talks to Qdrant over its REST API. Point ids are build
// positions, so hits map directly back to the chunk pool.
type QdrantIndex struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	count      int
	client     *http.Client
}

// NewQdrantIndex creates an unconnected index handle.
func NewQdrantIndex(cfg QdrantConfig) *QdrantIndex {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantIndex{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Build recreates the collection and upserts every entry.
func (q *QdrantIndex) Build(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return errors.New("cannot build index from zero entries")
	}
	q.dimension = len(entries[0].Vector)
	q.count = len(entries)

	body := map[string]any{
		"vectors": map[string]any{
			"size":     q.dimension,
			"distance": "Cosine",
		},
	}
	if err := q.putJSON(ctx, fmt.Sprintf("%s/collections/%s", q.url, q.collection), body, nil); err != nil {
		return err
	}

	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		points[i] = map[string]any{
			"id":     i,
			"vector": e.Vector,
			"payload": map[string]any{
				"chunk_id": e.ChunkID,
			},
		}
	}
	return q.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, q.collection), map[string]any{"points": points}, nil)
}

// Search runs a nearest-neighbor query against the collection.
func (q *QdrantIndex) Search(ctx context.Context, vector []float64, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      int            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := q.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", q.url, q.collection), req, &resp); err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hit := Hit{Position: r.ID, Score: r.Score}
		if v, ok := r.Payload["chunk_id"].(string); ok {
			hit.ChunkID = v
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// qdrantManifest is the on-disk artifact standing in for the index
// file when the index itself lives server-side.
type qdrantManifest struct {
	Collection string `json:"collection"`
	Dimension  int    `json:"dimension"`
	Count      int    `json:"count"`
}

// Save writes a manifest describing the server-side collection so the
// document's artifact set is complete.
func (q *QdrantIndex) Save(path string) error {
	data, err := json.Marshal(qdrantManifest{
		Collection: q.collection,
		Dimension:  q.dimension,
		Count:      q.count,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load restores the manifest written by Save.
func (q *QdrantIndex) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open index manifest: %w", err)
	}
	var m qdrantManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("decode index manifest: %w", err)
	}
	q.collection = m.Collection
	q.dimension = m.Dimension
	q.count = m.Count
	return nil
}

func (q *QdrantIndex) putJSON(ctx context.Context, url string, body, out any) error {
	return q.doJSON(ctx, http.MethodPut, url, body, out)
}

func (q *QdrantIndex) postJSON(ctx context.Context, url string, body, out any) error {
	return q.doJSON(ctx, http.MethodPost, url, body, out)
}

func (q *QdrantIndex) doJSON(ctx context.Context, method, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
