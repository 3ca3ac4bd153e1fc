// Package middleware holds the http middlewares shared by services
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"chatmill/internal/platform/logger"
)

// RequestID assigns each request a uuid, honoring an inbound
// X-Request-ID header, and mirrors it back on the response
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := logger.WithRequest(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
