package service

import (
	"context"
	"errors"
	"log"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/cloo-solutions/legalrag/internal/telemetry"
)

// DocumentStore persists the records of ingested documents.
type DocumentStore interface {
	Save(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, docID string) (*domain.Document, error)
	List(ctx context.Context) ([]*domain.Document, error)
	Delete(ctx context.Context, docID string) error
}

// RawLinker hands out download links for archived uploads.
type RawLinker interface {
	DownloadURL(ctx context.Context, docID string) (string, error)
}

// Ingester is the document pipeline as seen by the serving layer.
type Ingester interface {
	Ingest(ctx context.Context, raw []byte, filename string) (*domain.Document, error)
	Delete(ctx context.Context, docID string) (int64, error)
}

// DocumentService keeps the record store in step with the vector index.
type DocumentService struct {
	pipeline Ingester
	store    DocumentStore
	linker   RawLinker
}

// NewDocumentService creates a DocumentService. linker may be nil.
func NewDocumentService(pipeline Ingester, store DocumentStore, linker RawLinker) *DocumentService {
	return &DocumentService{
		pipeline: pipeline,
		store:    store,
		linker:   linker,
	}
}

// Upload ingests raw and records the resulting document. Re-uploading a
// filename replaces the earlier record.
func (s *DocumentService) Upload(ctx context.Context, raw []byte, filename string) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Upload", telemetry.SpanAttributes{
		Filename:  filename,
		Operation: "upload",
	})
	defer span.End()

	doc, err := s.pipeline.Ingest(ctx, raw, filename)
	if err != nil {
		switch domain.StageOf(err) {
		case domain.StageUpsert, domain.StageArchive:
			// the compensating delete emptied the index for this doc_id
			s.dropRecord(ctx, domain.DocumentID(filename))
		}
		span.SetError(err)
		return nil, err
	}

	if err := s.store.Save(ctx, doc); err != nil {
		if _, delErr := s.pipeline.Delete(context.WithoutCancel(ctx), doc.DocID); delErr != nil {
			log.Printf("documents: rollback of %s failed: %v", doc.DocID, delErr)
		}
		err = domain.Wrap(domain.ErrStorage, err)
		span.SetError(err)
		return nil, err
	}

	return doc, nil
}

func (s *DocumentService) dropRecord(ctx context.Context, docID string) {
	err := s.store.Delete(context.WithoutCancel(ctx), docID)
	if err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
		log.Printf("documents: failed to drop record %s: %v", docID, err)
	}
}

func (s *DocumentService) Get(ctx context.Context, docID string) (*domain.Document, error) {
	doc, err := s.store.GetByID(ctx, docID)
	if err != nil {
		return nil, storeError(err)
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context) ([]*domain.Document, error) {
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, storeError(err)
	}
	return docs, nil
}

// Delete removes a document's chunks, archive and record. It fails with
// ErrDocumentNotFound only when neither a record nor any chunk existed.
func (s *DocumentService) Delete(ctx context.Context, docID string) (int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "DocumentService.Delete", telemetry.SpanAttributes{
		DocID:     docID,
		Operation: "delete",
	})
	defer span.End()

	n, err := s.pipeline.Delete(ctx, docID)
	if err != nil {
		span.SetError(err)
		return n, err
	}

	if err := s.store.Delete(ctx, docID); err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) && n > 0 {
			return n, nil
		}
		err = storeError(err)
		span.SetError(err)
		return n, err
	}
	return n, nil
}

// RawURL returns a download link for the original upload of docID.
func (s *DocumentService) RawURL(ctx context.Context, docID string) (string, error) {
	if s.linker == nil {
		return "", domain.NewDomainError(domain.ErrCodeInvalidOperation, "raw archive is not configured")
	}
	if _, err := s.Get(ctx, docID); err != nil {
		return "", err
	}
	url, err := s.linker.DownloadURL(ctx, docID)
	if err != nil {
		return "", domain.Wrap(domain.ErrStorage, err)
	}
	return url, nil
}

// storeError passes domain errors through and tags the rest as storage failures.
func storeError(err error) error {
	if domain.CodeOf(err) != "" {
		return err
	}
	return domain.Wrap(domain.ErrStorage, err)
}
