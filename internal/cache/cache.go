// ABOUTME: On-disk artifact cache keyed by document content hash
// ABOUTME: Artifacts are written atomically as a set; partial sets are misses
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/callsight/callsight/internal/models"
)

// Artifact file names inside a document's cache directory.
const (
	FileSections        = "sections.json"
	FileChunks          = "chunks.json"
	FileSummary         = "summary.json"
	FileTopicsSummaries = "topics_summaries.json"
	FileTopicsItems     = "topics_items.json"
	FileTopicsSources   = "topics_sources.json"
	FileIndex           = "faiss.index"
)

// requiredFiles gate cache validity. A directory missing any one of
// them is a full miss, even if the others are intact.
var requiredFiles = []string{FileChunks, FileIndex, FileTopicsSummaries, FileSections}

// Document is the full artifact set for one processed transcript.
// Section-keyed maps use the section name strings as keys.
type Document struct {
	DocID        string                          `json:"doc_id"`
	Sections     map[string][]models.Line        `json:"sections"`
	Chunks       []models.Chunk                  `json:"chunks"`
	Summary      models.DocumentSummary          `json:"summary"`
	TopicBlocks  map[string]string               `json:"topic_blocks"`
	TopicItems   map[string][]models.TopicItem   `json:"topic_items"`
	TopicSources map[string][][]models.TopicSource `json:"topic_sources"`
}

// DocID derives the cache key from raw document bytes: the first 32 hex
// characters of the SHA-256 digest.
func DocID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:32]
}

// Store manages per-document cache directories under one base path.
type Store struct {
	base string
}

// NewStore returns a store rooted at base. The directory is created
// lazily on first save.
func NewStore(base string) *Store {
	return &Store{base: base}
}

// Dir returns the cache directory for a document.
func (s *Store) Dir(docID string) string {
	return filepath.Join(s.base, docID)
}

// Path returns the location of one artifact for a document.
func (s *Store) Path(docID, name string) string {
	return filepath.Join(s.Dir(docID), name)
}

// IsValid reports whether every required artifact exists for the
// document. Optional artifacts do not affect validity.
func (s *Store) IsValid(docID string) bool {
	for _, name := range requiredFiles {
		if _, err := os.Stat(s.Path(docID, name)); err != nil {
			return false
		}
	}
	return true
}

// Save writes the whole artifact set atomically: everything lands in a
// temp directory first, which then renames over the final location, so
// readers never observe a partial set. saveIndex persists the vector
// index at the path it is given.
func (s *Store) Save(doc *Document, saveIndex func(path string) error) error {
	if err := os.MkdirAll(s.base, 0o755); err != nil {
		return fmt.Errorf("create cache base: %w", err)
	}
	tmp, err := os.MkdirTemp(s.base, ".tmp-"+doc.DocID+"-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	artifacts := map[string]any{
		FileSections:        doc.Sections,
		FileChunks:          doc.Chunks,
		FileSummary:         doc.Summary,
		FileTopicsSummaries: doc.TopicBlocks,
		FileTopicsItems:     doc.TopicItems,
		FileTopicsSources:   doc.TopicSources,
	}
	for name, value := range artifacts {
		if err := writeJSON(filepath.Join(tmp, name), value); err != nil {
			return err
		}
	}
	if err := saveIndex(filepath.Join(tmp, FileIndex)); err != nil {
		return fmt.Errorf("save index artifact: %w", err)
	}

	final := s.Dir(doc.DocID)
	if err := os.RemoveAll(final); err != nil {
		return fmt.Errorf("clear stale cache: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("publish cache dir: %w", err)
	}
	return nil
}

// Load reads the artifact set back. Callers should check IsValid first;
// a missing required artifact surfaces as an error here. loadIndex
// restores the vector index from the path it is given.
func (s *Store) Load(docID string, loadIndex func(path string) error) (*Document, error) {
	doc := &Document{DocID: docID}
	if err := readJSON(s.Path(docID, FileSections), &doc.Sections); err != nil {
		return nil, err
	}
	if err := readJSON(s.Path(docID, FileChunks), &doc.Chunks); err != nil {
		return nil, err
	}
	if err := readJSON(s.Path(docID, FileTopicsSummaries), &doc.TopicBlocks); err != nil {
		return nil, err
	}

	// Optional artifacts default to their zero values.
	_ = readJSON(s.Path(docID, FileSummary), &doc.Summary)
	_ = readJSON(s.Path(docID, FileTopicsItems), &doc.TopicItems)
	_ = readJSON(s.Path(docID, FileTopicsSources), &doc.TopicSources)

	if err := loadIndex(s.Path(docID, FileIndex)); err != nil {
		return nil, err
	}
	return doc, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
