package textproc

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSection(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
		expected  []string
	}{
		{
			name:      "no terminal punctuation yields one chunk",
			text:      "this text has   no terminal\npunctuation at all",
			chunkSize: 3,
			overlap:   0,
			expected:  []string{"this text has no terminal punctuation at all"},
		},
		{
			name:      "boundary arithmetic with whole-sentence overlap",
			text:      "one two three. four five. six.",
			chunkSize: 3,
			overlap:   2,
			expected:  []string{"one two three.", "four five. six."},
		},
		{
			name:      "trailing sentence carried into next chunk",
			text:      "a b. c d. e f.",
			chunkSize: 4,
			overlap:   2,
			expected:  []string{"a b. c d.", "c d. e f."},
		},
		{
			name:      "overlap larger than chunk size",
			text:      "a b. c d. e f.",
			chunkSize: 2,
			overlap:   10,
			expected:  []string{"a b.", "a b. c d.", "a b. c d. e f."},
		},
		{
			name:      "long sentence kept whole",
			text:      "one two three four five six. seven.",
			chunkSize: 3,
			overlap:   0,
			expected:  []string{"one two three four five six.", "seven."},
		},
		{
			name:      "all terminal marks split",
			text:      "Stop! Why? Because.",
			chunkSize: 1,
			overlap:   0,
			expected:  []string{"Stop!", "Why?", "Because."},
		},
		{
			name:      "fits in one chunk",
			text:      "This is clause one. This is clause two.",
			chunkSize: 100,
			overlap:   0,
			expected:  []string{"This is clause one. This is clause two."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := ChunkSection(tt.text, tt.chunkSize, tt.overlap)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, chunks)
		})
	}
}

func TestChunkSection_Empty(t *testing.T) {
	chunks, err := ChunkSection("", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = ChunkSection("  \n\t ", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkSection_InvalidParameters(t *testing.T) {
	_, err := ChunkSection("a b.", 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrChunking))

	_, err = ChunkSection("a b.", 5, -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrChunking))
}

// randomText builds sentences whose words are unique, so overlap between
// consecutive chunks can be recovered unambiguously.
func randomText(r *rand.Rand, n int) []string {
	sentences := make([]string, n)
	for i := range sentences {
		words := make([]string, 1+r.Intn(8))
		for j := range words {
			words[j] = fmt.Sprintf("s%dw%d", i, j)
		}
		mark := r.Intn(3)
		words[len(words)-1] += ".!?"[mark : mark+1]
		sentences[i] = strings.Join(words, " ")
	}
	return sentences
}

func sentencesOf(chunk string) []string {
	parts := splitSentences(chunk)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = p.text
	}
	return out
}

// sharedSuffix returns how many trailing sentences of prev open next.
func sharedSuffix(prev, next []string) int {
	for k := len(prev); k > 0; k-- {
		if k > len(next) {
			continue
		}
		match := true
		for i := 0; i < k; i++ {
			if prev[len(prev)-k+i] != next[i] {
				match = false
				break
			}
		}
		if match {
			return k
		}
	}
	return 0
}

func TestChunkSection_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))

	for iter := 0; iter < 200; iter++ {
		original := randomText(r, 1+r.Intn(30))
		chunkSize := 1 + r.Intn(25)
		overlap := r.Intn(30)

		chunks, err := ChunkSection(strings.Join(original, " "), chunkSize, overlap)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		var rebuilt []string
		var prev []string
		for i, chunk := range chunks {
			current := sentencesOf(chunk)
			if i == 0 {
				rebuilt = append(rebuilt, current...)
				prev = current
				continue
			}

			k := sharedSuffix(prev, current)
			require.Less(t, k, len(current), "chunk %d must add a new sentence", i)

			words := 0
			for _, s := range prev[len(prev)-k:] {
				words += WordCount(s)
			}
			assert.LessOrEqual(t, words, overlap)
			if k < len(prev) {
				next := WordCount(prev[len(prev)-k-1])
				assert.Greater(t, words+next, overlap, "overlap suffix must be maximal")
			}

			rebuilt = append(rebuilt, current[k:]...)
			prev = current
		}

		assert.Equal(t, original, rebuilt)
	}
}

func TestChunkDocument(t *testing.T) {
	text, err := Normalize("SECTION 1\nThis is clause one. This is clause two.\nSECTION 2\nThis is clause three.")
	require.NoError(t, err)

	chunks, err := ChunkDocument(DetectSections(text), 100, 0)
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, domain.Chunk{Text: "This is clause one. This is clause two.", Section: "SECTION 1", ChunkIndex: 0}, chunks[0])
	assert.Equal(t, domain.Chunk{Text: "This is clause three.", Section: "SECTION 2", ChunkIndex: 0}, chunks[1])
}

func TestChunkDocument_IndexesPerSection(t *testing.T) {
	sections := []domain.Section{
		{Title: "A", Content: "one. two. three."},
		{Title: "B", Content: "four. five."},
	}

	chunks, err := ChunkDocument(sections, 1, 0)
	require.NoError(t, err)

	require.Len(t, chunks, 5)
	assert.Equal(t, []int{0, 1, 2, 0, 1}, []int{
		chunks[0].ChunkIndex, chunks[1].ChunkIndex, chunks[2].ChunkIndex,
		chunks[3].ChunkIndex, chunks[4].ChunkIndex,
	})
	assert.Equal(t, "B", chunks[3].Section)
	assert.Equal(t, "four.", chunks[3].Text)
}

func TestChunkDocument_PropagatesInvalidConfig(t *testing.T) {
	_, err := ChunkDocument([]domain.Section{{Title: "A", Content: "x."}}, 0, 0)
	assert.True(t, errors.Is(err, domain.ErrChunking))
}
