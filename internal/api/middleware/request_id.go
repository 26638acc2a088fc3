package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	docIDKey     contextKey = "doc_id"
)

// RequestID injects a request ID into context and response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request ID from context.
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(RequestIDKey).(string)
	return requestID
}

type docIDSlot struct {
	id string
}

func withDocIDSlot(ctx context.Context) context.Context {
	return context.WithValue(ctx, docIDKey, &docIDSlot{})
}

// SetDocID records the document a request acted on, for the access log.
func SetDocID(ctx context.Context, docID string) {
	if slot, ok := ctx.Value(docIDKey).(*docIDSlot); ok {
		slot.id = docID
	}
}

// GetDocID returns the document ID recorded with SetDocID.
func GetDocID(ctx context.Context) string {
	if slot, ok := ctx.Value(docIDKey).(*docIDSlot); ok {
		return slot.id
	}
	return ""
}
