package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockOpenAIAPI is a mock for the OpenAI embeddings API
type MockOpenAIAPI struct {
	mock.Mock
}

func (m *MockOpenAIAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

func vectors(n, dims int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		v := make([]float32, dims)
		for j := range v {
			v[j] = float32(i+j) * 0.001
		}
		out[i] = v
	}
	return out
}

func TestClient_Embed_Success(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536, batchSize: 10}

	ctx := context.Background()
	texts := []string{"The licensee may not reverse engineer.", "Refunds within 30 days."}
	expected := vectors(2, 1536)

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(expected, nil)

	embeddings, err := client.Embed(ctx, texts)

	require.NoError(t, err)
	assert.Equal(t, expected, embeddings)
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_Batches(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 4, batchSize: 2}

	ctx := context.Background()
	texts := []string{"a", "b", "c", "d", "e"}
	first := vectors(2, 4)
	second := vectors(2, 4)
	third := vectors(1, 4)

	mockAPI.On("CreateEmbeddings", ctx, []string{"a", "b"}).Return(first, nil).Once()
	mockAPI.On("CreateEmbeddings", ctx, []string{"c", "d"}).Return(second, nil).Once()
	mockAPI.On("CreateEmbeddings", ctx, []string{"e"}).Return(third, nil).Once()

	embeddings, err := client.Embed(ctx, texts)

	require.NoError(t, err)
	require.Len(t, embeddings, 5)
	assert.Equal(t, third[0], embeddings[4])
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_NoTexts(t *testing.T) {
	client := NewClient("")

	embeddings, err := client.Embed(context.Background(), nil)

	assert.NoError(t, err)
	assert.Nil(t, embeddings)
}

func TestClient_Embed_EmptyText(t *testing.T) {
	client := NewClient("")

	embeddings, err := client.Embed(context.Background(), []string{"ok", ""})

	assert.Error(t, err)
	assert.Nil(t, embeddings)
	assert.Equal(t, ErrEmptyText, err)
}

func TestClient_Embed_APIError(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536, batchSize: 10}

	ctx := context.Background()
	texts := []string{"Test text"}
	apiErr := errors.New("API rate limit exceeded")

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(nil, apiErr)

	embeddings, err := client.Embed(ctx, texts)

	assert.Error(t, err)
	assert.Nil(t, embeddings)
	assert.Contains(t, err.Error(), "failed to create embeddings")
	assert.ErrorIs(t, err, apiErr)
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_WrongDimensions(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 1536, batchSize: 10}

	ctx := context.Background()
	texts := []string{"Test text"}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(vectors(1, 512), nil)

	embeddings, err := client.Embed(ctx, texts)

	assert.Error(t, err)
	assert.Nil(t, embeddings)
	assert.Equal(t, ErrWrongDimensions, err)
	mockAPI.AssertExpectations(t)
}

func TestClient_Embed_CountMismatch(t *testing.T) {
	mockAPI := new(MockOpenAIAPI)
	client := &Client{api: mockAPI, dimensions: 4, batchSize: 10}

	ctx := context.Background()
	texts := []string{"one", "two"}

	mockAPI.On("CreateEmbeddings", ctx, texts).Return(vectors(1, 4), nil)

	_, err := client.Embed(ctx, texts)

	assert.Equal(t, ErrCountMismatch, err)
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key")

	assert.NotNil(t, client)
	assert.NotNil(t, client.api)
	assert.Equal(t, DefaultEmbeddingDimensions, client.Dimensions())
	assert.Equal(t, DefaultBatchSize, client.batchSize)
}

func TestNewClientWithConfig(t *testing.T) {
	client := NewClientWithConfig(Config{
		APIKey:              "test-api-key",
		BaseURL:             "http://localhost:11434/v1",
		EmbeddingDimensions: 384,
		BatchSize:           32,
	})

	assert.Equal(t, 384, client.Dimensions())
	assert.Equal(t, 32, client.batchSize)
}

// embeddingServer answers /embeddings with dims-long vectors and records
// each decoded request body.
func embeddingServer(t *testing.T, dims int) (*httptest.Server, func() []map[string]any) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		reqs = append(reqs, body)
		mu.Unlock()

		inputs, _ := body["input"].([]any)
		data := make([]map[string]any, len(inputs))
		for i := range inputs {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": make([]float32, dims)}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": body["model"]})
	}))
	t.Cleanup(srv.Close)

	return srv, func() []map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return reqs
	}
}

func TestClient_Embed_SendsDimensions(t *testing.T) {
	tests := []struct {
		name     string
		model    openai.EmbeddingModel
		dims     int
		wantDims any
	}{
		{name: "text-embedding-3 shortened", model: openai.SmallEmbedding3, dims: 256, wantDims: float64(256)},
		{name: "text-embedding-3 large", model: openai.LargeEmbedding3, dims: 1024, wantDims: float64(1024)},
		{name: "ada omits dimensions", model: openai.AdaEmbeddingV2, dims: 1536, wantDims: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, requests := embeddingServer(t, tt.dims)
			client := NewClientWithConfig(Config{
				APIKey:              "test-api-key",
				BaseURL:             srv.URL,
				EmbeddingModel:      tt.model,
				EmbeddingDimensions: tt.dims,
			})

			got, err := client.Embed(context.Background(), []string{"refund policy", "privacy"})
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Len(t, got[0], tt.dims)

			reqs := requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, string(tt.model), reqs[0]["model"])
			assert.Equal(t, tt.wantDims, reqs[0]["dimensions"])
		})
	}
}

func TestNewClientFromEnv_NoAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	client, err := NewClientFromEnv()

	assert.Nil(t, client)
	assert.Error(t, err)
	assert.Equal(t, ErrNoAPIKey, err)
}

func TestNewClientFromEnv_WithAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-api-key")

	client, err := NewClientFromEnv()

	assert.NotNil(t, client)
	assert.NoError(t, err)
}
