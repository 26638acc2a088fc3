package textproc

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloo-solutions/legalrag/internal/domain"
)

const (
	// IntroductionTitle names the section that precedes the first header.
	IntroductionTitle = "Introduction"

	maxHeaderRunes = 100
)

var (
	numberedHeader = regexp.MustCompile(`^\d+\.`)
	capsHeader     = regexp.MustCompile(`^[A-Z\s]{3,}$`)
)

// SectionDetector partitions normalized text into titled sections.
type SectionDetector interface {
	DetectSections(text string) []domain.Section
}

// HeuristicDetector finds headers line by line using layout-free heuristics.
type HeuristicDetector struct{}

// DetectSections implements SectionDetector.
func (HeuristicDetector) DetectSections(text string) []domain.Section {
	return DetectSections(text)
}

// DetectSections scans text line by line and opens a new section at every
// header-like line. Sections without content are dropped; text with no
// header at all comes back as a single Introduction section.
func DetectSections(text string) []domain.Section {
	var sections []domain.Section
	title := IntroductionTitle
	var content strings.Builder

	flush := func() {
		body := strings.TrimSpace(content.String())
		if body != "" {
			sections = append(sections, domain.Section{Title: title, Content: body})
		}
		content.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if IsHeader(line) {
			flush()
			title = line
			continue
		}
		content.WriteString(line)
		content.WriteByte(' ')
	}
	flush()

	return sections
}

// IsHeader reports whether a trimmed line looks like a section header.
func IsHeader(line string) bool {
	if utf8.RuneCountInString(line) >= maxHeaderRunes {
		return false
	}
	return isUpper(line) || numberedHeader.MatchString(line) || capsHeader.MatchString(line)
}

// isUpper reports whether s has at least one cased letter and no lower-case ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
