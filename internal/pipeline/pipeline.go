// ABOUTME: End-to-end transcript processing pipeline with artifact caching
// ABOUTME: Extracts, splits, chunks, tags, indexes and summarizes one document
package pipeline

import (
	"context"
	"fmt"

	"github.com/callsight/callsight/internal/cache"
	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/index"
	"github.com/callsight/callsight/internal/logger"
	"github.com/callsight/callsight/internal/metadata"
	"github.com/callsight/callsight/internal/models"
	"github.com/callsight/callsight/internal/segment"
	"github.com/callsight/callsight/internal/topics"
)

// Extractor produces page/line-tagged text from raw document bytes.
type Extractor interface {
	ExtractLines(data []byte) ([]models.Line, error)
}

// LLM bundles the embedding and chat collaborators the pipeline needs.
// *llm.Client satisfies this.
type LLM interface {
	metadata.Chatter
	EmbedTexts(ctx context.Context, texts []string) ([][]float64, error)
}

// Processor runs documents through the full pipeline.
type Processor struct {
	cfg       *config.Config
	llm       LLM
	extractor Extractor
	store     *cache.Store
}

// New wires a processor from its collaborators.
func New(cfg *config.Config, llm LLM, extractor Extractor, store *cache.Store) *Processor {
	return &Processor{cfg: cfg, llm: llm, extractor: extractor, store: store}
}

// Result is one processed document ready for querying.
type Result struct {
	Doc      *cache.Document
	Index    index.Index
	CacheHit bool
}

// sectionOrder fixes processing order. Opening Remarks must precede Q&A
// because speaker state carries across the two.
var sectionOrder = []models.Section{models.SectionOpening, models.SectionQA}

// Process runs a document end to end. A complete cached artifact set
// short-circuits everything; a partial or unreadable one triggers full
// reprocessing. Metadata and topic failures degrade to fallbacks, only
// extraction and indexing failures abort the document.
func (p *Processor) Process(ctx context.Context, data []byte) (*Result, error) {
	docID := cache.DocID(data)

	if p.store.IsValid(docID) {
		idx, err := index.New(p.cfg)
		if err == nil {
			doc, loadErr := p.store.Load(docID, idx.Load)
			if loadErr == nil {
				logger.Infof("cache hit for document %s", docID)
				return &Result{Doc: doc, Index: idx, CacheHit: true}, nil
			}
			logger.Warnf("cache for %s unreadable, reprocessing: %v", docID, loadErr)
		}
	}

	lines, err := p.extractor.ExtractLines(data)
	if err != nil {
		return nil, fmt.Errorf("extract document %s: %w", docID, err)
	}
	logger.Infof("extracted %d lines for document %s", len(lines), docID)

	sections := segment.Split(lines)
	sectionLines := map[string][]models.Line{
		string(models.SectionOpening): sections.Opening,
		string(models.SectionQA):      sections.QA,
	}

	chunks, err := p.chunk(sections)
	if err != nil {
		return nil, err
	}
	logger.Infof("chunked document %s into %d chunks", docID, len(chunks))

	doc := &cache.Document{
		DocID:        docID,
		Sections:     sectionLines,
		Chunks:       chunks,
		TopicBlocks:  map[string]string{},
		TopicItems:   map[string][]models.TopicItem{},
		TopicSources: map[string][][]models.TopicSource{},
	}

	if len(chunks) == 0 {
		doc.Summary = models.DocumentSummary{TotalPages: maxPage(lines)}
		idx := index.NewMemoryIndex()
		if err := p.store.Save(doc, idx.Save); err != nil {
			return nil, err
		}
		return &Result{Doc: doc, Index: idx, CacheHit: false}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := p.llm.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks for %s: %w", docID, err)
	}
	entries := make([]index.Entry, len(chunks))
	for i := range chunks {
		entries[i] = index.Entry{ChunkID: chunks[i].ChunkID, Vector: vectors[i]}
	}

	// Preliminary metadata runs against a local throwaway index so the
	// configured backend is only touched once roles are final.
	tmpIdx := index.NewMemoryIndex()
	if err := tmpIdx.Build(ctx, entries); err != nil {
		return nil, fmt.Errorf("build temporary index for %s: %w", docID, err)
	}
	doc.Summary = metadata.Extract(ctx, p.llm, p.llm, tmpIdx, lines, chunks)
	segment.TagRoles(chunks, doc.Summary.ManagementNames())

	for _, section := range sectionOrder {
		name := string(section)
		block := topics.GenerateBlock(ctx, p.llm, sectionLines[name])
		doc.TopicBlocks[name] = block
		doc.TopicItems[name] = topics.ParseBlock(block)
	}

	idx, err := index.New(p.cfg)
	if err != nil {
		return nil, err
	}
	if err := idx.Build(ctx, entries); err != nil {
		return nil, fmt.Errorf("build index for %s: %w", docID, err)
	}

	for _, section := range sectionOrder {
		name := string(section)
		doc.TopicSources[name] = topics.Sources(ctx, p.llm, idx, doc.TopicItems[name], chunks)
	}

	if err := p.store.Save(doc, idx.Save); err != nil {
		return nil, fmt.Errorf("cache document %s: %w", docID, err)
	}
	logger.Infof("document %s processed and cached", docID)
	return &Result{Doc: doc, Index: idx, CacheHit: false}, nil
}

// chunk runs both chunking passes over the split sections, threading the
// speaker state from Opening Remarks into Q&A on one shared id counter.
func (p *Processor) chunk(sections segment.Sections) ([]models.Chunk, error) {
	size, overlap := p.cfg.ChunkSize, p.cfg.ChunkOverlap
	if size <= 0 {
		size = segment.DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = segment.DefaultOverlap
	}

	var all []models.Chunk
	nextID := 0

	metaChunks, nextID := segment.ChunkMetadata(sections.Metadata, size, overlap, nextID)
	all = append(all, metaChunks...)

	state := segment.NewSpeakerState()
	opening, nextID := segment.SpeakerChunks(sections.Opening, models.SectionOpening, nextID, state)
	all = append(all, opening...)
	qa, _ := segment.SpeakerChunks(sections.QA, models.SectionQA, nextID, state)
	all = append(all, qa...)

	seen := make(map[string]struct{}, len(all))
	for _, c := range all {
		if _, dup := seen[c.ChunkID]; dup {
			return nil, fmt.Errorf("duplicate chunk id %s", c.ChunkID)
		}
		seen[c.ChunkID] = struct{}{}
	}
	return all, nil
}

func maxPage(lines []models.Line) int {
	max := 0
	for _, l := range lines {
		if l.Page > max {
			max = l.Page
		}
	}
	return max
}
