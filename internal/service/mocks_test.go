package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockEmbeddingProvider struct {
	mock.Mock
}

func (m *MockEmbeddingProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) Upsert(ctx context.Context, docID string, chunks []domain.IndexedChunk) error {
	args := m.Called(ctx, docID, chunks)
	return args.Error(0)
}

func (m *MockVectorIndex) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, vector, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

func (m *MockVectorIndex) DeleteByDocID(ctx context.Context, docID string) (int64, error) {
	args := m.Called(ctx, docID)
	return args.Get(0).(int64), args.Error(1)
}

type MockAnswerGenerator struct {
	mock.Mock
}

func (m *MockAnswerGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockRawArchive struct {
	mock.Mock
}

func (m *MockRawArchive) Put(ctx context.Context, docID, filename string, raw []byte) error {
	args := m.Called(ctx, docID, filename, raw)
	return args.Error(0)
}

func (m *MockRawArchive) Delete(ctx context.Context, docID string) error {
	args := m.Called(ctx, docID)
	return args.Error(0)
}

type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Save(ctx context.Context, d *domain.Document) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDocumentStore) GetByID(ctx context.Context, docID string) (*domain.Document, error) {
	args := m.Called(ctx, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentStore) List(ctx context.Context) ([]*domain.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Document), args.Error(1)
}

func (m *MockDocumentStore) Delete(ctx context.Context, docID string) error {
	args := m.Called(ctx, docID)
	return args.Error(0)
}

type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Ingest(ctx context.Context, raw []byte, filename string) (*domain.Document, error) {
	args := m.Called(ctx, raw, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockIngester) Delete(ctx context.Context, docID string) (int64, error) {
	args := m.Called(ctx, docID)
	return args.Get(0).(int64), args.Error(1)
}

type MockRawLinker struct {
	mock.Mock
}

func (m *MockRawLinker) DownloadURL(ctx context.Context, docID string) (string, error) {
	args := m.Called(ctx, docID)
	return args.String(0), args.Error(1)
}

// keywordEmbedder counts vocabulary terms, giving texts that share terms a
// small cosine distance.
type keywordEmbedder struct {
	vocab []string
	calls int
}

func newKeywordEmbedder(vocab ...string) *keywordEmbedder {
	return &keywordEmbedder{vocab: vocab}
}

func (e *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		v := make([]float32, len(e.vocab))
		for j, term := range e.vocab {
			v[j] = float32(strings.Count(lower, term))
		}
		out[i] = v
	}
	return out, nil
}

func distance(d float64) *float64 {
	return &d
}
