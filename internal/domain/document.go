package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// DocType classifies an ingested legal document.
type DocType string

const (
	DocTypeEULA          DocType = "EULA"
	DocTypeToS           DocType = "ToS"
	DocTypePrivacyPolicy DocType = "Privacy Policy"
	DocTypeOther         DocType = "Other"
)

// DocumentMetadata is computed from the normalized document text at ingestion.
type DocumentMetadata struct {
	DocType   DocType   `json:"doc_type" yaml:"doc_type"`
	WordCount int       `json:"word_count" yaml:"word_count"`
	CharCount int       `json:"char_count" yaml:"char_count"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Document is the record returned for every successful ingestion.
// It is immutable after creation; the only lifecycle change is deletion.
type Document struct {
	DocID      string           `json:"doc_id" yaml:"doc_id"`
	Filename   string           `json:"filename" yaml:"filename"`
	Metadata   DocumentMetadata `json:"metadata" yaml:"metadata"`
	ChunkCount int              `json:"chunk_count" yaml:"chunk_count"`
}

// DocumentID derives the document identifier from its filename.
// Two uploads with the same filename share an identifier.
func DocumentID(filename string) string {
	sum := md5.Sum([]byte(filename))
	return hex.EncodeToString(sum[:])
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.DocID == "" {
		return fmt.Errorf("document DocID is required")
	}

	if d.Filename == "" {
		return fmt.Errorf("document Filename is required")
	}

	if !IsValidDocType(d.Metadata.DocType) {
		return fmt.Errorf("document DocType is invalid: %s", d.Metadata.DocType)
	}

	if d.ChunkCount < 0 {
		return fmt.Errorf("document ChunkCount cannot be negative")
	}

	return nil
}

// IsValidDocType checks if a DocType is valid
func IsValidDocType(t DocType) bool {
	switch t {
	case DocTypeEULA, DocTypeToS, DocTypePrivacyPolicy, DocTypeOther:
		return true
	}
	return false
}
