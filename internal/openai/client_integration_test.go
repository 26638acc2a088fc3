//go:build integration

package openai

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_Embed_RealAPI(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	client := NewClient(apiKey)
	ctx := context.Background()
	texts := []string{
		"The licensee may install the software on one device.",
		"Refunds are available within 30 days of purchase.",
	}

	embeddings, err := client.Embed(ctx, texts)

	require.NoError(t, err)
	require.Len(t, embeddings, 2)
	assert.Len(t, embeddings[0], DefaultEmbeddingDimensions)
}

func TestIntegration_Complete_RealAPI(t *testing.T) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	gen := NewGenerator(GeneratorConfig{APIKey: apiKey, MaxTokens: 20})

	answer, err := gen.Complete(context.Background(), "Reply with the single word: ready")

	require.NoError(t, err)
	assert.Contains(t, strings.ToLower(answer), "ready")
}
