package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
// A target carrying a message only matches that exact message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Message == "" || t.Message == e.Message || isCodeSentinel(t)
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap attaches cause to a copy of the sentinel, keeping its code and message.
func Wrap(sentinel *DomainError, cause error) *DomainError {
	return NewDomainErrorWithCause(sentinel.Code, sentinel.Message, cause)
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Pipeline and query error codes
const (
	ErrCodeNormalization = "NORMALIZATION_ERROR"
	ErrCodeEmptyDocument = "EMPTY_DOCUMENT"
	ErrCodeChunking      = "CHUNKING_ERROR"
	ErrCodeExtraction    = "EXTRACTION_ERROR"
	ErrCodeEmbedding     = "EMBEDDING_ERROR"
	ErrCodeIndex         = "INDEX_ERROR"
	ErrCodeGeneration    = "GENERATION_ERROR"
	ErrCodeRetrieval     = "RETRIEVAL_ERROR"
	ErrCodeStorage       = "STORAGE_ERROR"
)

// Validation errors
var (
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidQuery         = NewDomainError(ErrCodeValidation, "invalid query")
	ErrUnsupportedFileType  = NewDomainError(ErrCodeValidation, "unsupported file type")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
)

// Already exists errors
var (
	ErrDocumentAlreadyExists = NewDomainError(ErrCodeAlreadyExists, "document already exists")
)

// Ingestion errors
var (
	ErrNormalization = NewDomainError(ErrCodeNormalization, "input is not text")
	ErrEmptyDocument = NewDomainError(ErrCodeEmptyDocument, "no extractable text found")
	ErrChunking      = NewDomainError(ErrCodeChunking, "invalid chunking parameters")
	ErrExtraction    = NewDomainError(ErrCodeExtraction, "failed to extract text")
)

// External dependency errors
var (
	ErrEmbedding  = NewDomainError(ErrCodeEmbedding, "embedding provider failed")
	ErrIndex      = NewDomainError(ErrCodeIndex, "vector index failed")
	ErrGeneration = NewDomainError(ErrCodeGeneration, "answer generator failed")
	ErrRetrieval  = NewDomainError(ErrCodeRetrieval, "retrieval failed")
	ErrStorage    = NewDomainError(ErrCodeStorage, "storage operation failed")
)

// codeSentinels match any error carrying their code, whatever its message.
var codeSentinels = []*DomainError{
	ErrNormalization,
	ErrEmptyDocument,
	ErrChunking,
	ErrExtraction,
	ErrEmbedding,
	ErrIndex,
	ErrGeneration,
	ErrRetrieval,
	ErrStorage,
}

func isCodeSentinel(t *DomainError) bool {
	for _, s := range codeSentinels {
		if s == t {
			return true
		}
	}
	return false
}

// Stage names a step of the ingestion pipeline or the query engine.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageNormalize Stage = "normalize"
	StageSections  Stage = "detect-sections"
	StageClassify  Stage = "classify"
	StageChunk     Stage = "chunk"
	StageEmbed     Stage = "embed"
	StageUpsert    Stage = "upsert"
	StageArchive   Stage = "archive"
	StageSearch    Stage = "search"
	StageGenerate  Stage = "generate"
	StageDelete    Stage = "delete"
)

// StageError attributes a failure to the stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err with the stage name. A nil err yields nil.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded on err, or "" when none was attached.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
