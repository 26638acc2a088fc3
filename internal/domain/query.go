package domain

// ChunkMetadata is the metadata stored next to every indexed chunk.
type ChunkMetadata struct {
	DocID      string `json:"doc_id" yaml:"doc_id"`
	Section    string `json:"section" yaml:"section"`
	ChunkIndex int    `json:"chunk_index" yaml:"chunk_index"`
}

// RetrievedChunk is an indexed chunk scored against one query.
// Distance is nil when the index does not report one.
type RetrievedChunk struct {
	ID       string        `json:"id" yaml:"id"`
	Text     string        `json:"text" yaml:"text"`
	Metadata ChunkMetadata `json:"metadata" yaml:"metadata"`
	Distance *float64      `json:"distance" yaml:"distance"`
}

// QueryResult is the answer to one question plus the chunks it was grounded on.
type QueryResult struct {
	Query           string           `json:"query" yaml:"query"`
	Answer          string           `json:"answer" yaml:"answer"`
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks" yaml:"retrieved_chunks"`
	NumChunks       int              `json:"num_chunks" yaml:"num_chunks"`
}
