package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// IndexBackend selects where chunks and document records live.
	IndexBackend string `envconfig:"INDEX_BACKEND" default:"postgres"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	DBMaxConns   int32  `envconfig:"DB_MAX_CONNS" default:"10"`

	ChunkSize          int           `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap       int           `envconfig:"CHUNK_OVERLAP" default:"200"`
	TopK               int           `envconfig:"TOP_K" default:"5"`
	RelevanceThreshold float64       `envconfig:"RELEVANCE_THRESHOLD" default:"1.0"`
	EmbedTimeout       time.Duration `envconfig:"EMBED_TIMEOUT" default:"30s"`
	GenerateTimeout    time.Duration `envconfig:"GENERATE_TIMEOUT" default:"60s"`
	MaxUploadBytes     int64         `envconfig:"MAX_UPLOAD_BYTES" default:"26214400"`

	OpenAIAPIKey          string  `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL         string  `envconfig:"OPENAI_BASE_URL"`
	EmbeddingModel        string  `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions   int     `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	EmbeddingBatchSize    int     `envconfig:"EMBEDDING_BATCH_SIZE" default:"256"`
	CompletionModel       string  `envconfig:"COMPLETION_MODEL" default:"gpt-4o-mini"`
	CompletionMaxTokens   int     `envconfig:"COMPLETION_MAX_TOKENS" default:"2000"`
	CompletionTemperature float32 `envconfig:"COMPLETION_TEMPERATURE" default:"0.7"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3RawBucket string `envconfig:"S3_RAW_BUCKET" default:"legalrag-raw"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("LEGALRAG", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.IndexBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("invalid config: LEGALRAG_DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("invalid config: LEGALRAG_INDEX_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, c.IndexBackend)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("invalid config: LEGALRAG_CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("invalid config: LEGALRAG_CHUNK_OVERLAP cannot be negative, got %d", c.ChunkOverlap)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("invalid config: LEGALRAG_TOP_K must be positive, got %d", c.TopK)
	}
	if c.RelevanceThreshold <= 0 {
		return fmt.Errorf("invalid config: LEGALRAG_RELEVANCE_THRESHOLD must be positive, got %g", c.RelevanceThreshold)
	}
	if c.EmbeddingDimensions <= 0 {
		return fmt.Errorf("invalid config: LEGALRAG_EMBEDDING_DIMENSIONS must be positive, got %d", c.EmbeddingDimensions)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

func (c *Config) UsesPostgres() bool {
	return c.IndexBackend == BackendPostgres
}
