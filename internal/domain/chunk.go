package domain

import "strconv"

// Section is a heuristically detected subdivision of a document.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Chunk is a bounded passage of section text, the unit of retrieval.
type Chunk struct {
	Text       string `json:"text"`
	Section    string `json:"section"`
	ChunkIndex int    `json:"chunk_index"`
}

// IndexedChunk is a Chunk stored in the vector index under its owning document.
type IndexedChunk struct {
	Chunk
	ID        string    `json:"id"`
	DocID     string    `json:"doc_id"`
	Embedding []float32 `json:"-"`
}

// ChunkID builds the deterministic identifier of the seq-th chunk of a document.
func ChunkID(docID string, seq int) string {
	return docID + "_chunk_" + strconv.Itoa(seq)
}

// NewIndexedChunks pairs chunks with their embeddings in order.
func NewIndexedChunks(docID string, chunks []Chunk, embeddings [][]float32) []IndexedChunk {
	out := make([]IndexedChunk, len(chunks))
	for i, c := range chunks {
		out[i] = IndexedChunk{
			Chunk:     c,
			ID:        ChunkID(docID, i),
			DocID:     docID,
			Embedding: embeddings[i],
		}
	}
	return out
}
