package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cloo-solutions/legalrag/internal/api"
	"github.com/cloo-solutions/legalrag/internal/api/middleware"
	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

type DocumentService interface {
	Upload(ctx context.Context, raw []byte, filename string) (*domain.Document, error)
	Get(ctx context.Context, docID string) (*domain.Document, error)
	List(ctx context.Context) ([]*domain.Document, error)
	Delete(ctx context.Context, docID string) (int64, error)
	RawURL(ctx context.Context, docID string) (string, error)
}

type DocumentHandler struct {
	svc DocumentService
}

func NewDocumentHandler(svc DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

type DeleteDocumentResponse struct {
	DocID         string `json:"doc_id"`
	DeletedChunks int64  `json:"deleted_chunks"`
}

type ListDocumentsResponse struct {
	Documents []*domain.Document `json:"documents"`
	Total     int                `json:"total"`
}

type RawURLResponse struct {
	DocID       string `json:"doc_id"`
	DownloadURL string `json:"download_url"`
}

// Upload ingests the multipart field "file".
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(strings.TrimSpace(header.Filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	middleware.SetDocID(r.Context(), domain.DocumentID(filename))

	doc, err := h.svc.Upload(r.Context(), raw, filename)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	if docs == nil {
		docs = []*domain.Document{}
	}

	api.Success(w, http.StatusOK, ListDocumentsResponse{Documents: docs, Total: len(docs)})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}
	middleware.SetDocID(r.Context(), id)

	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, doc)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}
	middleware.SetDocID(r.Context(), id)

	n, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DeleteDocumentResponse{DocID: id, DeletedChunks: n})
}

func (h *DocumentHandler) RawURL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}
	middleware.SetDocID(r.Context(), id)

	url, err := h.svc.RawURL(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, RawURLResponse{DocID: id, DownloadURL: url})
}
