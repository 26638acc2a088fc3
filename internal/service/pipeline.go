package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/cloo-solutions/legalrag/internal/telemetry"
	"github.com/cloo-solutions/legalrag/internal/textproc"
)

// TextExtractor turns uploaded bytes into text.
type TextExtractor interface {
	ExtractText(ctx context.Context, raw []byte, filename string) (string, error)
}

// RawArchive keeps the original upload of each document.
type RawArchive interface {
	Put(ctx context.Context, docID, filename string, raw []byte) error
	Delete(ctx context.Context, docID string) error
}

// PipelineConfig tunes ingestion.
type PipelineConfig struct {
	Chunk        textproc.ChunkConfig
	EmbedTimeout time.Duration
}

// Pipeline turns raw uploads into indexed chunks.
type Pipeline struct {
	extractor TextExtractor
	detector  textproc.SectionDetector
	embedder  EmbeddingProvider
	index     VectorIndex
	archive   RawArchive
	cfg       PipelineConfig
	now       func() time.Time
}

// NewPipeline creates an ingestion pipeline. archive may be nil.
func NewPipeline(extractor TextExtractor, embedder EmbeddingProvider, index VectorIndex, archive RawArchive, cfg PipelineConfig) *Pipeline {
	if cfg.Chunk == (textproc.ChunkConfig{}) {
		cfg.Chunk = textproc.DefaultChunkConfig()
	}
	return &Pipeline{
		extractor: extractor,
		detector:  textproc.HeuristicDetector{},
		embedder:  embedder,
		index:     index,
		archive:   archive,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithSectionDetector swaps the header heuristic for another detector.
func (p *Pipeline) WithSectionDetector(d textproc.SectionDetector) *Pipeline {
	p.detector = d
	return p
}

// Ingest runs every stage on raw and returns the record of the indexed
// document. Nothing stays indexed under the document ID when it fails.
func (p *Pipeline) Ingest(ctx context.Context, raw []byte, filename string) (*domain.Document, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, domain.ErrMissingRequiredField
	}

	docID := domain.DocumentID(filename)
	ctx, span := telemetry.StartSpan(ctx, "Pipeline.Ingest", telemetry.SpanAttributes{
		DocID:     docID,
		Filename:  filename,
		Operation: "ingest",
	})
	defer span.End()

	fail := func(stage domain.Stage, err error) (*domain.Document, error) {
		err = domain.NewStageError(stage, err)
		log.Printf("pipeline: ingest %s (%s) failed: %v", filename, docID, err)
		span.SetError(err)
		return nil, err
	}

	text, err := p.extractor.ExtractText(ctx, raw, filename)
	if err != nil {
		if domain.CodeOf(err) == "" {
			err = domain.Wrap(domain.ErrExtraction, err)
		}
		return fail(domain.StageExtract, err)
	}

	normalized, err := textproc.Normalize(text)
	if err != nil {
		return fail(domain.StageNormalize, err)
	}
	if normalized == "" {
		return fail(domain.StageNormalize, domain.Wrap(domain.ErrEmptyDocument, fmt.Errorf("%q has no text after normalization", filename)))
	}

	sections := p.detector.DetectSections(normalized)
	docType := textproc.ClassifyDocType(normalized)

	chunks, err := textproc.ChunkDocument(sections, p.cfg.Chunk.ChunkSize, p.cfg.Chunk.Overlap)
	if err != nil {
		return fail(domain.StageChunk, err)
	}
	if len(chunks) == 0 {
		return fail(domain.StageChunk, domain.Wrap(domain.ErrEmptyDocument, fmt.Errorf("%q has headers but no section content", filename)))
	}

	embeddings, err := p.embed(ctx, chunks)
	if err != nil {
		return fail(domain.StageEmbed, domain.Wrap(domain.ErrEmbedding, err))
	}

	indexed := domain.NewIndexedChunks(docID, chunks, embeddings)
	if err := p.index.Upsert(ctx, docID, indexed); err != nil {
		p.compensate(ctx, docID, domain.StageUpsert)
		return fail(domain.StageUpsert, domain.Wrap(domain.ErrIndex, err))
	}

	if p.archive != nil {
		if err := p.archive.Put(ctx, docID, filename, raw); err != nil {
			p.compensate(ctx, docID, domain.StageArchive)
			return fail(domain.StageArchive, domain.Wrap(domain.ErrStorage, err))
		}
	}

	doc := &domain.Document{
		DocID:    docID,
		Filename: filename,
		Metadata: domain.DocumentMetadata{
			DocType:   docType,
			WordCount: textproc.WordCount(normalized),
			CharCount: utf8.RuneCountInString(normalized),
			Timestamp: p.now(),
		},
		ChunkCount: len(indexed),
	}
	log.Printf("pipeline: ingested %s as %s (%s, %d sections, %d chunks)", filename, docID, docType, len(sections), len(indexed))
	return doc, nil
}

func (p *Pipeline) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.EmbedTimeout)
	defer cancel()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	return vectors, nil
}

// compensate removes whatever was indexed under docID. It runs even when the
// request context is already done.
func (p *Pipeline) compensate(ctx context.Context, docID string, after domain.Stage) {
	ctx = context.WithoutCancel(ctx)
	telemetry.AddBreadcrumb(ctx, "pipeline", fmt.Sprintf("compensating delete of %s after %s failure", docID, after))

	n, err := p.index.DeleteByDocID(ctx, docID)
	if err != nil {
		log.Printf("pipeline: compensating delete of %s after %s failure failed: %v", docID, after, err)
		return
	}
	log.Printf("pipeline: compensating delete of %s after %s failure removed %d chunks", docID, after, n)
}

// Delete removes every indexed chunk of docID and its archived upload.
// It reports the number of chunks removed.
func (p *Pipeline) Delete(ctx context.Context, docID string) (int64, error) {
	if strings.TrimSpace(docID) == "" {
		return 0, domain.ErrMissingRequiredField
	}

	ctx, span := telemetry.StartSpan(ctx, "Pipeline.Delete", telemetry.SpanAttributes{
		DocID:     docID,
		Operation: "delete",
	})
	defer span.End()

	n, err := p.index.DeleteByDocID(ctx, docID)
	if err != nil {
		err = domain.NewStageError(domain.StageDelete, domain.Wrap(domain.ErrIndex, err))
		span.SetError(err)
		return 0, err
	}

	if p.archive != nil {
		if err := p.archive.Delete(ctx, docID); err != nil {
			err = domain.NewStageError(domain.StageDelete, domain.Wrap(domain.ErrStorage, err))
			span.SetError(err)
			return n, err
		}
	}

	log.Printf("pipeline: deleted %s (%d chunks)", docID, n)
	return n, nil
}
