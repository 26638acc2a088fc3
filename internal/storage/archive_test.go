package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawKey(t *testing.T) {
	assert.Equal(t, "raw/abc123", RawKey("abc123"))
}

func TestContentTypeFor(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		raw      []byte
		want     string
	}{
		{"pdf", "eula.PDF", []byte("%PDF-1.4"), "application/pdf"},
		{"text", "tos.txt", []byte("terms"), "text/plain; charset=utf-8"},
		{"markdown", "privacy.md", []byte("# p"), "text/markdown; charset=utf-8"},
		{"sniffed", "upload", []byte("%PDF-1.7 body"), "application/pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentTypeFor(tt.filename, tt.raw))
		})
	}
}
