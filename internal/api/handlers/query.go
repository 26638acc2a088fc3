package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloo-solutions/legalrag/internal/api"
	"github.com/cloo-solutions/legalrag/internal/domain"
)

type QueryEngine interface {
	Query(ctx context.Context, question string, topK int) (*domain.QueryResult, error)
}

type QueryHandler struct {
	engine QueryEngine
}

func NewQueryHandler(engine QueryEngine) *QueryHandler {
	return &QueryHandler{engine: engine}
}

type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// Query answers one question. A zero top_k selects the engine default.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.TopK < 0 {
		api.Error(w, http.StatusBadRequest, "top_k must not be negative")
		return
	}

	result, err := h.engine.Query(r.Context(), req.Query, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}
