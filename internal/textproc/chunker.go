package textproc

import (
	"fmt"
	"strings"

	"github.com/cloo-solutions/legalrag/internal/domain"
)

// ChunkConfig controls how section text is split into chunks.
type ChunkConfig struct {
	// ChunkSize is the target number of words per chunk.
	ChunkSize int
	// Overlap is the maximum number of trailing words carried into the next chunk.
	Overlap int
}

// DefaultChunkConfig provides the defaults used for legal documents.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		ChunkSize: 1000,
		Overlap:   200,
	}
}

// Validate rejects parameters the chunker cannot honor.
func (c ChunkConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return domain.Wrap(domain.ErrChunking, fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize))
	}
	if c.Overlap < 0 {
		return domain.Wrap(domain.ErrChunking, fmt.Errorf("overlap cannot be negative, got %d", c.Overlap))
	}
	return nil
}

type sentence struct {
	text  string
	words int
}

// splitSentences breaks text on '.', '!' or '?' followed by whitespace.
// Whitespace is collapsed first, so a sentence ends at the first word whose
// last character is terminal punctuation.
func splitSentences(text string) []sentence {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var out []sentence
	start := 0
	for i, w := range words {
		switch w[len(w)-1] {
		case '.', '!', '?':
			out = append(out, sentence{text: strings.Join(words[start:i+1], " "), words: i + 1 - start})
			start = i + 1
		}
	}
	if start < len(words) {
		out = append(out, sentence{text: strings.Join(words[start:], " "), words: len(words) - start})
	}
	return out
}

// ChunkSection splits one section's text into word-bounded, sentence-aligned
// chunks. When a chunk closes, the longest run of its trailing sentences that
// fits within overlap words seeds the next chunk. A sentence longer than
// chunkSize is kept whole.
func ChunkSection(text string, chunkSize, overlap int) ([]string, error) {
	if err := (ChunkConfig{ChunkSize: chunkSize, Overlap: overlap}).Validate(); err != nil {
		return nil, err
	}

	var chunks []string
	var current []sentence
	size := 0

	for _, s := range splitSentences(text) {
		if size+s.words > chunkSize && len(current) > 0 {
			chunks = append(chunks, joinSentences(current))
			current, size = overlapSuffix(current, overlap)
		}
		current = append(current, s)
		size += s.words
	}
	if len(current) > 0 {
		chunks = append(chunks, joinSentences(current))
	}

	return chunks, nil
}

// overlapSuffix walks backward from the end of a closed chunk and keeps whole
// sentences while their combined word count stays within overlap.
func overlapSuffix(closed []sentence, overlap int) ([]sentence, int) {
	count := 0
	start := len(closed)
	for i := len(closed) - 1; i >= 0; i-- {
		if count+closed[i].words > overlap {
			break
		}
		count += closed[i].words
		start = i
	}
	suffix := make([]sentence, len(closed)-start, len(closed)-start+1)
	copy(suffix, closed[start:])
	return suffix, count
}

func joinSentences(ss []sentence) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = s.text
	}
	return strings.Join(parts, " ")
}

// ChunkDocument chunks every section and numbers chunks per section from 0.
func ChunkDocument(sections []domain.Section, chunkSize, overlap int) ([]domain.Chunk, error) {
	var all []domain.Chunk
	for _, section := range sections {
		texts, err := ChunkSection(section.Content, chunkSize, overlap)
		if err != nil {
			return nil, err
		}
		for i, text := range texts {
			all = append(all, domain.Chunk{
				Text:       text,
				Section:    section.Title,
				ChunkIndex: i,
			})
		}
	}
	return all, nil
}
