package admin

import (
	"context"
	"fmt"
	"log"

	"github.com/cloo-solutions/legalrag/internal/config"
	"github.com/cloo-solutions/legalrag/internal/database"
	"github.com/cloo-solutions/legalrag/internal/extract"
	"github.com/cloo-solutions/legalrag/internal/openai"
	"github.com/cloo-solutions/legalrag/internal/repository"
	"github.com/cloo-solutions/legalrag/internal/repository/memory"
	"github.com/cloo-solutions/legalrag/internal/service"
	"github.com/cloo-solutions/legalrag/internal/storage"
	"github.com/cloo-solutions/legalrag/internal/textproc"
	"github.com/jackc/pgx/v5/pgxpool"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"
)

// maxPDFPages bounds extraction work for a single upload.
const maxPDFPages = 500

// stack is the wired ingestion and query path shared by every command.
type stack struct {
	pool      *pgxpool.Pool
	pipeline  *service.Pipeline
	documents *service.DocumentService
	engine    *service.Engine
}

func (s *stack) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

type stackOptions struct {
	migrate        bool
	migrationsPath string
}

// buildStack connects the configured backends. Postgres is migrated first
// when opts.migrate is set.
func buildStack(ctx context.Context, cfg *config.Config, opts stackOptions) (*stack, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("LEGALRAG_OPENAI_API_KEY is required")
	}

	s := &stack{}

	var index service.VectorIndex
	var store service.DocumentStore
	if cfg.UsesPostgres() {
		if opts.migrate {
			if err := runMigrations(cfg.DatabaseURL, opts.migrationsPath); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		pool, err := database.NewPool(ctx, database.Config{
			URL:      cfg.DatabaseURL,
			MaxConns: cfg.DBMaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Println("connected to database")

		s.pool = pool
		index = repository.NewChunkIndex(pool)
		store = repository.NewDocumentRepository(pool)
	} else {
		log.Println("using in-memory index; documents are lost on exit")
		index = memory.NewIndex()
		store = memory.NewDocumentStore()
	}

	var archive service.RawArchive
	var linker service.RawLinker
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3RawBucket,
			UsePathStyle:    true,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3RawBucket)

		raw := storage.NewRawArchive(s3Client)
		archive = raw
		linker = raw
	}

	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		BatchSize:           cfg.EmbeddingBatchSize,
	})
	generator := openai.NewGenerator(openai.GeneratorConfig{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.CompletionModel,
		MaxTokens:   cfg.CompletionMaxTokens,
		Temperature: cfg.CompletionTemperature,
	})

	s.pipeline = service.NewPipeline(extract.NewExtractor(maxPDFPages), embedder, index, archive, service.PipelineConfig{
		Chunk: textproc.ChunkConfig{
			ChunkSize: cfg.ChunkSize,
			Overlap:   cfg.ChunkOverlap,
		},
		EmbedTimeout: cfg.EmbedTimeout,
	})
	s.documents = service.NewDocumentService(s.pipeline, store, linker)
	s.engine = service.NewEngine(embedder, index, generator, service.EngineConfig{
		TopK:               cfg.TopK,
		RelevanceThreshold: cfg.RelevanceThreshold,
		EmbedTimeout:       cfg.EmbedTimeout,
		GenerateTimeout:    cfg.GenerateTimeout,
	})

	return s, nil
}

// loadConfig loads the environment and applies the backend flag override.
func loadConfig(backend string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if backend != "" && backend != cfg.IndexBackend {
		cfg.IndexBackend = backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func addBackendFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", "", "Index backend: postgres or memory (overrides LEGALRAG_INDEX_BACKEND)")
	cmd.Flags().Bool("no-migrate", false, "Skip database migrations")
	cmd.Flags().String("migrations", defaultMigrationsPath, "Directory containing migration files")
}

// commandStack builds the stack for one-shot commands. They run against
// Postgres only, since an in-memory index would not outlive the command.
func commandStack(cmd *cobra.Command) (*stack, func(), error) {
	backend, _ := cmd.Flags().GetString("backend")
	cfg, err := loadConfig(backend)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.UsesPostgres() {
		return nil, nil, fmt.Errorf("%s requires LEGALRAG_INDEX_BACKEND=%s", cmd.Name(), config.BackendPostgres)
	}

	shutdownTelemetry := initTelemetry(cfg)
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	migrationsPath, _ := cmd.Flags().GetString("migrations")
	s, err := buildStack(cmd.Context(), cfg, stackOptions{migrate: !noMigrate, migrationsPath: migrationsPath})
	if err != nil {
		shutdownTelemetry()
		return nil, nil, err
	}

	return s, func() {
		s.Close()
		shutdownTelemetry()
	}, nil
}
