package textproc

import (
	"strings"
	"testing"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSections_NumberedUpperCaseHeaders(t *testing.T) {
	text := "SECTION 1\nThis is clause one. This is clause two.\nSECTION 2\nThis is clause three."

	sections := DetectSections(text)

	require.Len(t, sections, 2)
	assert.Equal(t, domain.Section{Title: "SECTION 1", Content: "This is clause one. This is clause two."}, sections[0])
	assert.Equal(t, domain.Section{Title: "SECTION 2", Content: "This is clause three."}, sections[1])
}

func TestDetectSections_NoHeadersYieldsIntroduction(t *testing.T) {
	text := "This agreement governs use of the software.\nYou agree to the terms below."

	sections := DetectSections(text)

	require.Len(t, sections, 1)
	assert.Equal(t, IntroductionTitle, sections[0].Title)
	assert.Equal(t, "This agreement governs use of the software. You agree to the terms below.", sections[0].Content)
}

func TestDetectSections_IntroductionBeforeFirstHeader(t *testing.T) {
	text := "Welcome to the service.\n\n1. Definitions\nWords mean things.\n2. Licence Grant\nYou may use it."

	sections := DetectSections(text)

	require.Len(t, sections, 3)
	assert.Equal(t, IntroductionTitle, sections[0].Title)
	assert.Equal(t, "1. Definitions", sections[1].Title)
	assert.Equal(t, "Words mean things.", sections[1].Content)
	assert.Equal(t, "2. Licence Grant", sections[2].Title)
}

func TestDetectSections_DropsEmptySections(t *testing.T) {
	text := "END USER LICENSE AGREEMENT\nGRANT OF LICENSE\nYou may install one copy."

	sections := DetectSections(text)

	require.Len(t, sections, 1)
	assert.Equal(t, "GRANT OF LICENSE", sections[0].Title)
	assert.Equal(t, "You may install one copy.", sections[0].Content)
}

func TestDetectSections_Empty(t *testing.T) {
	assert.Empty(t, DetectSections(""))
	assert.Empty(t, DetectSections("\n\n"))
}

func TestHeuristicDetector_ImplementsSectionDetector(t *testing.T) {
	var detector SectionDetector = HeuristicDetector{}

	sections := detector.DetectSections("PRIVACY\nWe collect data.")

	require.Len(t, sections, 1)
	assert.Equal(t, "PRIVACY", sections[0].Title)
}

func TestIsHeader(t *testing.T) {
	tests := []struct {
		line     string
		expected bool
	}{
		{"GRANT OF LICENSE", true},
		{"12. Termination", true},
		{"SECTION 4(B)", true},
		{"Termination", false},
		{"You agree to these terms.", false},
		{"2024 copyright notice", false},
		{"1999", false},
		{strings.Repeat("A", 100), false},
		{strings.Repeat("A", 99), true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsHeader(tt.line))
		})
	}
}
