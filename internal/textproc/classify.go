package textproc

import (
	"regexp"

	"github.com/cloo-solutions/legalrag/internal/domain"
)

var docTypeRules = []struct {
	docType domain.DocType
	pattern *regexp.Regexp
}{
	{domain.DocTypeEULA, regexp.MustCompile(`(?i)\b(end[\s-]+user\s+licen[cs]e\s+agreement|eula)\b`)},
	{domain.DocTypeToS, regexp.MustCompile(`(?i)\b(terms\s+of\s+(service|use)|terms\s+and\s+conditions)\b`)},
	{domain.DocTypePrivacyPolicy, regexp.MustCompile(`(?i)\b(privacy\s+(policy|notice|statement))\b`)},
}

// ClassifyDocType matches keywords in priority order: EULA, then terms of
// service, then privacy policy. Anything else is DocTypeOther.
func ClassifyDocType(text string) domain.DocType {
	for _, rule := range docTypeRules {
		if rule.pattern.MatchString(text) {
			return rule.docType
		}
	}
	return domain.DocTypeOther
}
