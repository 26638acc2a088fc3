package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/cloo-solutions/legalrag/internal/domain"
)

// DocumentStore keeps document records in a map.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]domain.Document)}
}

func (s *DocumentStore) Save(_ context.Context, d *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[d.DocID] = *d
	return nil
}

func (s *DocumentStore) GetByID(_ context.Context, docID string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[docID]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &d, nil
}

// List returns all records, newest first.
func (s *DocumentStore) List(_ context.Context) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*domain.Document, 0, len(s.docs))
	for _, d := range s.docs {
		d := d
		docs = append(docs, &d)
	}
	sort.Slice(docs, func(i, j int) bool {
		ti, tj := docs[i].Metadata.Timestamp, docs[j].Metadata.Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return docs[i].DocID < docs[j].DocID
	})
	return docs, nil
}

func (s *DocumentStore) Delete(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(s.docs, docID)
	return nil
}
