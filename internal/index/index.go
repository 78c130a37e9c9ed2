// ABOUTME: Vector index contract over embedded transcript chunks
// ABOUTME: Entries pair each vector with its chunk id to prevent misalignment
package index

import (
	"context"
	"fmt"

	"github.com/callsight/callsight/internal/config"
)

// Entry pairs an embedding vector with the chunk it was computed from.
// Keeping the pairing explicit removes the silent positional-alignment
// risk between the chunk list and the embedding matrix.
type Entry struct {
	ChunkID string    `json:"chunk_id"`
	Vector  []float64 `json:"vector"`
}

// Hit is a nearest-neighbor match. Position is the entry's index in the
// build order, which callers use to address the chunk pool.
type Hit struct {
	Position int
	ChunkID  string
	Score    float64
}

// Index is a similarity index over chunk embeddings. Similarity is the
// normalized inner product, i.e. cosine similarity.
type Index interface {
	Build(ctx context.Context, entries []Entry) error
	Search(ctx context.Context, vector []float64, topK int) ([]Hit, error)
	Save(path string) error
	Load(path string) error
}

// New constructs the configured index backend.
func New(cfg *config.Config) (Index, error) {
	switch cfg.IndexBackend {
	case "memory":
		return NewMemoryIndex(), nil
	case "qdrant":
		return NewQdrantIndex(QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Timeout:    cfg.QdrantTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}
}
