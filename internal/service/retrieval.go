package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/cloo-solutions/legalrag/internal/telemetry"
)

const (
	// DefaultTopK is the number of neighbors searched when the caller gives none.
	DefaultTopK = 5
	// DefaultRelevanceThreshold drops results at or beyond cosine distance 1,
	// i.e. chunks with no positive similarity to the question.
	DefaultRelevanceThreshold = 1.0

	unknownSection = "unknown"
)

// EmbeddingProvider maps texts to vectors, one per input, in input order.
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex stores indexed chunks and serves nearest-neighbor queries.
// Search results are ordered by ascending distance.
type VectorIndex interface {
	Upsert(ctx context.Context, docID string, chunks []domain.IndexedChunk) error
	Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error)
	DeleteByDocID(ctx context.Context, docID string) (int64, error)
}

// AnswerGenerator completes a prompt with a language model.
type AnswerGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EngineConfig tunes the retrieval engine.
type EngineConfig struct {
	TopK               int
	RelevanceThreshold float64
	EmbedTimeout       time.Duration
	GenerateTimeout    time.Duration
}

// DefaultEngineConfig returns the default retrieval settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TopK:               DefaultTopK,
		RelevanceThreshold: DefaultRelevanceThreshold,
		EmbedTimeout:       30 * time.Second,
		GenerateTimeout:    60 * time.Second,
	}
}

// Engine answers questions from indexed document chunks.
type Engine struct {
	embedder  EmbeddingProvider
	index     VectorIndex
	generator AnswerGenerator
	cfg       EngineConfig
}

// NewEngine creates a retrieval engine. Zero config values take defaults.
func NewEngine(embedder EmbeddingProvider, index VectorIndex, generator AnswerGenerator, cfg EngineConfig) *Engine {
	def := DefaultEngineConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.RelevanceThreshold <= 0 {
		cfg.RelevanceThreshold = def.RelevanceThreshold
	}
	return &Engine{
		embedder:  embedder,
		index:     index,
		generator: generator,
		cfg:       cfg,
	}
}

// Query embeds question, retrieves up to topK relevant chunks and asks the
// generator for an answer grounded in them. topK <= 0 uses the configured
// default. Embedding and search failures are returned as retrieval errors;
// a generation failure yields a result with an error answer instead.
func (e *Engine) Query(ctx context.Context, question string, topK int) (*domain.QueryResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Engine.Query", telemetry.SpanAttributes{
		Operation: "query",
	})
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrInvalidQuery
	}
	if topK <= 0 {
		topK = e.cfg.TopK
	}

	vector, err := e.embedQuestion(ctx, question)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewStageError(domain.StageEmbed, domain.Wrap(domain.ErrRetrieval, domain.Wrap(domain.ErrEmbedding, err)))
	}

	results, err := e.search(ctx, vector, topK)
	if err != nil {
		span.SetError(err)
		return nil, domain.NewStageError(domain.StageSearch, domain.Wrap(domain.ErrRetrieval, domain.Wrap(domain.ErrIndex, err)))
	}

	relevant := FilterRelevant(results, e.cfg.RelevanceThreshold)
	prompt := BuildPrompt(question, BuildContext(relevant))

	answer, err := e.generate(ctx, prompt)
	if err != nil {
		telemetry.CaptureError(ctx, domain.NewStageError(domain.StageGenerate, err))
		answer = fmt.Sprintf("Error generating response: %v", err)
	}

	return &domain.QueryResult{
		Query:           question,
		Answer:          answer,
		RetrievedChunks: relevant,
		NumChunks:       len(relevant),
	}, nil
}

func (e *Engine) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	ctx, span := telemetry.StartSpan(ctx, "Engine.embed", telemetry.SpanAttributes{Stage: string(domain.StageEmbed)})
	defer span.End()

	ctx, cancel := withTimeout(ctx, e.cfg.EmbedTimeout)
	defer cancel()

	vectors, err := e.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vectors))
	}
	return vectors[0], nil
}

func (e *Engine) search(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "Engine.search", telemetry.SpanAttributes{Stage: string(domain.StageSearch)})
	defer span.End()

	return e.index.Search(ctx, vector, k)
}

func (e *Engine) generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "Engine.generate", telemetry.SpanAttributes{Stage: string(domain.StageGenerate)})
	defer span.End()

	ctx, cancel := withTimeout(ctx, e.cfg.GenerateTimeout)
	defer cancel()

	return e.generator.Complete(ctx, prompt)
}

// FilterRelevant keeps results strictly closer than threshold, in rank order.
// Results without a distance are kept.
func FilterRelevant(results []domain.RetrievedChunk, threshold float64) []domain.RetrievedChunk {
	kept := make([]domain.RetrievedChunk, 0, len(results))
	for _, r := range results {
		if r.Distance != nil && *r.Distance >= threshold {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// BuildContext renders chunks as labeled excerpts separated by blank lines.
func BuildContext(chunks []domain.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		section := c.Metadata.Section
		if section == "" {
			section = unknownSection
		}
		parts[i] = fmt.Sprintf("[Section: %s]\n%s", section, c.Text)
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt wraps the excerpts and the question in answering instructions.
func BuildPrompt(question, excerpts string) string {
	var sb strings.Builder
	sb.WriteString("You are an AI assistant helping a user understand legal documents such as EULAs, Terms of Service and privacy policies.\n")
	sb.WriteString("Based on the following excerpts, provide a clear and accurate answer to the user's question.\n\n")
	sb.WriteString("Document Excerpts:\n")
	sb.WriteString(excerpts)
	sb.WriteString("\n\nUser Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nRules:\n")
	sb.WriteString("1. Answer only from the excerpts above.\n")
	sb.WriteString("2. Reference section labels when they help.\n")
	sb.WriteString("3. If the excerpts do not support an answer, reply exactly: I don't know\n\n")
	sb.WriteString("Answer:")
	return sb.String()
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
