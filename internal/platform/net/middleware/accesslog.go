package middleware

import (
	"net/http"
	"time"

	"chatmill/internal/platform/logger"
)

// capture wraps the original ResponseWriter and records status and bytes
type capture struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (c *capture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *capture) Write(b []byte) (int, error) {
	n, err := c.ResponseWriter.Write(b)
	if n > 0 {
		c.bytes += n
	}
	return n, err
}

// AccessLog logs method, path, status, elapsed, and bytes written.
// Requests taking 500ms or more log at warn level
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cw := &capture{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(cw, r)

		elapsed := time.Since(start)
		log := logger.C(r.Context())
		evt := log.Info()
		if elapsed >= 500*time.Millisecond {
			evt = log.Warn()
		}
		evt.Int("status", cw.status).
			Dur("elapsed", elapsed).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("bytes", cw.bytes).
			Msg("request done")
	})
}
