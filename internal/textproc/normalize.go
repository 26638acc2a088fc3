// Package textproc turns extracted document text into section-aware,
// overlapping chunks ready for embedding.
package textproc

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"golang.org/x/text/unicode/norm"
)

var (
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}_\s\v\p{Zs}.,;:!?()\-'"]+`)
	horizontalSpace = regexp.MustCompile(`[\t\v\f\p{Zs}]+`)
	spaceAroundLF   = regexp.MustCompile(` ?\n ?`)
	blankLineRuns   = regexp.MustCompile(`\n{3,}`)
)

// Normalize strips noise from raw extracted text while keeping line and
// paragraph boundaries intact for section detection.
func Normalize(raw string) (string, error) {
	if !utf8.ValidString(raw) {
		return "", domain.Wrap(domain.ErrNormalization, fmt.Errorf("invalid UTF-8"))
	}
	if strings.IndexByte(raw, 0) >= 0 {
		return "", domain.Wrap(domain.ErrNormalization, fmt.Errorf("binary content"))
	}

	// NFC only composes; compatibility forms like ½ or ¹ stay as written.
	text := norm.NFC.String(raw)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = disallowedChars.ReplaceAllString(text, "")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = spaceAroundLF.ReplaceAllString(text, "\n")
	text = blankLineRuns.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text), nil
}

// WordCount counts whitespace-delimited tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
