// Package memory holds in-process implementations of the vector index and
// the document record store, for running without Postgres.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/cloo-solutions/legalrag/internal/domain"
)

var errDimensionMismatch = errors.New("vector dimension mismatch")

// Index is a brute-force cosine-distance vector index.
type Index struct {
	mu    sync.RWMutex
	docs  map[string][]domain.IndexedChunk
	order []string
}

func NewIndex() *Index {
	return &Index{docs: make(map[string][]domain.IndexedChunk)}
}

// Upsert replaces every chunk stored for docID with chunks.
func (s *Index) Upsert(_ context.Context, docID string, chunks []domain.IndexedChunk) error {
	stored := make([]domain.IndexedChunk, len(chunks))
	for i, c := range chunks {
		if c.DocID != docID {
			return fmt.Errorf("chunk %s belongs to %q, not %q", c.ID, c.DocID, docID)
		}
		c.Embedding = append([]float32(nil), c.Embedding...)
		stored[i] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[docID]; !ok {
		s.order = append(s.order, docID)
	}
	s.docs[docID] = stored
	return nil
}

// Search returns the k nearest chunks by cosine distance, closest first.
// Ties keep insertion order.
func (s *Index) Search(_ context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		chunk    domain.IndexedChunk
		distance float64
	}
	var all []scored
	for _, docID := range s.order {
		for _, c := range s.docs[docID] {
			if len(c.Embedding) != len(vector) {
				return nil, errDimensionMismatch
			}
			all = append(all, scored{chunk: c, distance: cosineDistance(c.Embedding, vector)})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].distance < all[j].distance })
	if k > len(all) {
		k = len(all)
	}

	results := make([]domain.RetrievedChunk, 0, k)
	for _, sc := range all[:k] {
		distance := sc.distance
		results = append(results, domain.RetrievedChunk{
			ID:   sc.chunk.ID,
			Text: sc.chunk.Text,
			Metadata: domain.ChunkMetadata{
				DocID:      sc.chunk.DocID,
				Section:    sc.chunk.Section,
				ChunkIndex: sc.chunk.ChunkIndex,
			},
			Distance: &distance,
		})
	}
	return results, nil
}

// DeleteByDocID removes every chunk of docID and reports how many were removed.
func (s *Index) DeleteByDocID(_ context.Context, docID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, ok := s.docs[docID]
	if !ok {
		return 0, nil
	}
	delete(s.docs, docID)
	for i, id := range s.order {
		if id == docID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return int64(len(chunks)), nil
}

// Len returns the number of stored chunks.
func (s *Index) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, chunks := range s.docs {
		n += len(chunks)
	}
	return n
}

// cosineDistance is 1 - cos(a, b). A zero vector is treated as orthogonal.
func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
