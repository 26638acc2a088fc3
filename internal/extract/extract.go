// Package extract pulls plain text out of uploaded document bytes.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// Extractor turns raw file bytes into text. It dispatches on the PDF magic
// number first and falls back to the filename extension.
type Extractor struct {
	maxPages int
}

// NewExtractor creates an Extractor. maxPages <= 0 means no page limit.
func NewExtractor(maxPages int) *Extractor {
	return &Extractor{maxPages: maxPages}
}

// ExtractText returns the text content of raw.
func (e *Extractor) ExtractText(ctx context.Context, raw []byte, filename string) (string, error) {
	if len(raw) == 0 {
		return "", domain.Wrap(domain.ErrEmptyDocument, fmt.Errorf("%q is empty", filename))
	}

	if bytes.HasPrefix(raw, pdfMagic) {
		return e.extractPDF(ctx, raw)
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".text", ".md", "":
		return string(raw), nil
	case ".pdf":
		return "", domain.Wrap(domain.ErrExtraction, fmt.Errorf("%q has a .pdf extension but no PDF header", filename))
	default:
		return "", domain.Wrap(domain.ErrUnsupportedFileType, fmt.Errorf("%q", filename))
	}
}

func (e *Extractor) extractPDF(ctx context.Context, raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", domain.Wrap(domain.ErrExtraction, fmt.Errorf("failed to create PDF reader: %w", err))
	}

	pages := reader.NumPage()
	if e.maxPages > 0 && pages > e.maxPages {
		pages = e.maxPages
	}

	var sb strings.Builder
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", domain.Wrap(domain.ErrExtraction, err)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			return "", domain.Wrap(domain.ErrExtraction, fmt.Errorf("page %d: %w", i, err))
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	return sb.String(), nil
}
