package handlers

import (
	"net/http"
	"time"

	"github.com/cloo-solutions/legalrag/internal/api"
)

const serviceName = "legalrag"

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// Health reports liveness. It does not probe the index or the generator.
func Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   serviceName,
	})
}
