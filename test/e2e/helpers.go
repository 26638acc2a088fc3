//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/legalrag/internal/api/handlers"
	"github.com/cloo-solutions/legalrag/internal/extract"
	"github.com/cloo-solutions/legalrag/internal/openai"
	"github.com/cloo-solutions/legalrag/internal/repository"
	"github.com/cloo-solutions/legalrag/internal/server"
	"github.com/cloo-solutions/legalrag/internal/service"
	"github.com/cloo-solutions/legalrag/internal/storage"
	"github.com/cloo-solutions/legalrag/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	embeddingDimensions = 1536
	rawBucket           = "test-raw"
	fakeAnswer          = "Refunds are available within 14 days of purchase."
)

// vocabulary maps terms onto the leading vector dimensions of the fake
// embedding endpoint.
var vocabulary = []string{"refund", "purchase", "terminat", "privacy", "data", "agree"}

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	OpenAI       *httptest.Server
	ServerURL    string
	ServerCloser func()
	S3Client     *storage.S3Client
	BinaryDir    string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers and server
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          rawBucket,
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create S3 client: %v", err)
	}

	if err := s3Client.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	fakeOpenAI := newFakeOpenAI()

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, s3Client, fakeOpenAI.URL, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		OpenAI:       fakeOpenAI,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		S3Client:     s3Client,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.OpenAI != nil {
		e.OpenAI.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// Reset empties the index and the document store
func (e *E2ETestEnv) Reset() {
	if err := testutil.TruncateAll(e.Ctx, e.Pool); err != nil {
		e.T.Fatalf("failed to truncate tables: %v", err)
	}
}

// ChunkCount counts indexed chunks for docID directly in the database
func (e *E2ETestEnv) ChunkCount(docID string) int {
	var n int
	if err := e.Pool.QueryRow(e.Ctx, "SELECT count(*) FROM document_chunks WHERE doc_id = $1", docID).Scan(&n); err != nil {
		e.T.Fatalf("failed to count chunks: %v", err)
	}
	return n
}

// BuildBinaries builds the legalragd binary
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "legalrag-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "legalragd"), "./cmd/legalragd")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build legalragd: %v\n%s", err, out)
	}
}

// RunLegalragd runs the legalragd CLI against the test database and fake OpenAI endpoint
func (e *E2ETestEnv) RunLegalragd(args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "legalragd"), args...)
	cmd.Dir = "../.."
	cmd.Env = append(os.Environ(),
		"LEGALRAG_INDEX_BACKEND=postgres",
		fmt.Sprintf("LEGALRAG_DATABASE_URL=%s", e.PostgresC.ConnectionString()),
		"LEGALRAG_OPENAI_API_KEY=sk-e2e",
		fmt.Sprintf("LEGALRAG_OPENAI_BASE_URL=%s/v1", e.OpenAI.URL),
		fmt.Sprintf("LEGALRAG_S3_ENDPOINT=%s", e.RustFSC.Endpoint()),
		"LEGALRAG_S3_ACCESS_KEY_ID=rustfsadmin",
		"LEGALRAG_S3_SECRET_ACCESS_KEY=rustfsadmin",
		fmt.Sprintf("LEGALRAG_S3_RAW_BUCKET=%s", rawBucket),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return stdout.String(), fmt.Errorf("%w: %s", err, stderr.String())
	}
	return stdout.String(), nil
}

// APIResponse represents a standard API response
type APIResponse struct {
	Status int
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
	Stage  string          `json:"stage,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest(http.MethodGet, path, nil, "")
}

// Post performs a POST request with a JSON body
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal body: %w", err)
	}
	return e.doRequest(http.MethodPost, path, bytes.NewReader(jsonData), "application/json")
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest(http.MethodDelete, path, nil, "")
}

// Upload posts content as the multipart field "file"
func (e *E2ETestEnv) Upload(filename string, content []byte) (*APIResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return e.doRequest(http.MethodPost, "/upload", &body, mw.FormDataContentType())
}

// doRequest returns the decoded envelope for any status; transport and
// decoding failures are errors.
func (e *E2ETestEnv) doRequest(method, path string, body io.Reader, contentType string) (*APIResponse, error) {
	req, err := http.NewRequest(method, e.ServerURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}
	apiResp.Status = resp.StatusCode

	return &apiResp, nil
}

// DownloadFile downloads a file from the presigned URL
func (e *E2ETestEnv) DownloadFile(downloadURL string) ([]byte, error) {
	resp, err := e.HTTPClient.Get(downloadURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// startServer starts the HTTP server with the Postgres index, the raw archive
// and OpenAI clients pointed at the fake endpoint
func startServer(t *testing.T, pool *pgxpool.Pool, s3Client *storage.S3Client, openAIURL string, port int) (string, func()) {
	index := repository.NewChunkIndex(pool)
	store := repository.NewDocumentRepository(pool)
	archive := storage.NewRawArchive(s3Client)

	embedder := openai.NewClientWithConfig(openai.Config{
		APIKey:              "sk-e2e",
		BaseURL:             openAIURL + "/v1",
		EmbeddingDimensions: embeddingDimensions,
	})
	generator := openai.NewGenerator(openai.GeneratorConfig{
		APIKey:  "sk-e2e",
		BaseURL: openAIURL + "/v1",
	})

	pipeline := service.NewPipeline(extract.NewExtractor(0), embedder, index, archive, service.PipelineConfig{})
	documents := service.NewDocumentService(pipeline, store, archive)
	engine := service.NewEngine(embedder, index, generator, service.DefaultEngineConfig())

	router := server.NewRouter(server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(documents),
		QueryHandler:    handlers.NewQueryHandler(engine),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

// newFakeOpenAI serves the embeddings and chat completion endpoints. Each
// embedding counts vocabulary terms, plus a small bias so no vector is zero.
func newFakeOpenAI() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": termVector(text),
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	})

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-e2e",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": fakeAnswer},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
		})
	})

	return httptest.NewServer(mux)
}

func termVector(text string) []float32 {
	lower := strings.ToLower(text)
	v := make([]float32, embeddingDimensions)
	for i, term := range vocabulary {
		v[i] = float32(strings.Count(lower, term))
	}
	v[embeddingDimensions-1] = 0.1
	return v
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
