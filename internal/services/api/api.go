// Package api exposes the conversion pipeline over HTTP
package api

import (
	"github.com/go-chi/chi/v5"

	"chatmill/internal/ingest"
	"chatmill/internal/platform/net/middleware"
	"chatmill/internal/sink"
)

// Options configures the mounted API
type Options struct {
	// MaxUploadBytes caps the multipart upload size, default 256 MiB
	MaxUploadBytes int64

	// Ingest is the base reader config applied to every request
	Ingest ingest.Config

	// Sinks receives every converted batch, nil disables forwarding
	Sinks *sink.Multi

	CORS middleware.CORSOptions
}

const defaultMaxUpload = 256 << 20

// Mount wires routes and the middleware stack onto the mux
func Mount(m *chi.Mux, opts Options) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}

	m.Use(middleware.RequestID)
	m.Use(middleware.RecoverJSON)
	m.Use(middleware.AccessLog)
	m.Use(middleware.CORS(opts.CORS))

	h := &handlers{opts: opts}

	m.Get("/healthz", h.health)
	m.Route("/v1", func(r chi.Router) {
		r.Get("/formats", h.formats)
		r.Post("/convert", h.convert)
	})
}
