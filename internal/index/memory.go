// ABOUTME: In-memory flat inner-product index with cosine normalization
// ABOUTME: Serializes to a single artifact file for the document cache
package index

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
)

// MemoryIndex is a flat index: vectors are L2-normalized on insert and
// queries are normalized on search, so the inner product is cosine
// similarity. Search is a linear scan, which is plenty for a single
// transcript's chunk count.
type MemoryIndex struct {
	entries []Entry
}

// NewMemoryIndex returns an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

// Build replaces the index contents with the given entries.
func (m *MemoryIndex) Build(_ context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("cannot build index from zero entries")
	}
	dim := len(entries[0].Vector)
	m.entries = make([]Entry, len(entries))
	for i, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("entry %d: dimension %d, expected %d", i, len(e.Vector), dim)
		}
		m.entries[i] = Entry{ChunkID: e.ChunkID, Vector: normalize(e.Vector)}
	}
	return nil
}

// Search returns the topK nearest entries by cosine similarity, best
// first. Ties keep build order.
func (m *MemoryIndex) Search(_ context.Context, vector []float64, topK int) ([]Hit, error) {
	if len(m.entries) == 0 {
		return nil, fmt.Errorf("index is empty")
	}
	if topK <= 0 {
		return nil, nil
	}

	query := normalize(vector)
	hits := make([]Hit, len(m.entries))
	for i, e := range m.entries {
		hits[i] = Hit{Position: i, ChunkID: e.ChunkID, Score: dot(query, e.Vector)}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

// Save writes the normalized entries to path.
func (m *MemoryIndex) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(m.entries); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Load reads entries previously written by Save.
func (m *MemoryIndex) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var entries []Entry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	m.entries = entries
	return nil
}

// Len reports the number of indexed entries.
func (m *MemoryIndex) Len() int {
	return len(m.entries)
}

func normalize(v []float64) []float64 {
	var norm float64
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return v
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
