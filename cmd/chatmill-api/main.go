// Command chatmill-api serves the conversion pipeline over HTTP.
// Configuration comes from API_* and SINK_* env vars
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"chatmill/internal/ingest"
	"chatmill/internal/platform/config"
	"chatmill/internal/platform/logger"
	phttp "chatmill/internal/platform/net/http"
	"chatmill/internal/platform/net/middleware"
	"chatmill/internal/services/api"
	"chatmill/internal/sink"
)

func main() {
	log := logger.Get()

	root := config.New()
	apiCfg := root.Prefix("API_")
	sinkCfg := root.Prefix("SINK_")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks, err := sink.Open(ctx, sinkConfig(sinkCfg))
	if err != nil {
		log.Panic().Err(err).Msg("open sinks")
	}
	defer sinks.Close()

	srv := phttp.NewServer(apiCfg)
	api.Mount(srv.Mux(), api.Options{
		MaxUploadBytes: int64(apiCfg.MayInt("MAX_UPLOAD_MB", 256)) << 20,
		Ingest: ingest.Config{
			MaxRecordSize: apiCfg.MayInt("MAX_RECORD_BYTES", 0),
		},
		Sinks: sinks,
		CORS: middleware.CORSOptions{
			AllowedOrigins: []string{apiCfg.MayString("CORS_ORIGIN", "*")},
		},
	})

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	if err := srv.Run(ctx); err != nil {
		log.Panic().Err(err).Msg("http server stopped")
	}
}

func sinkConfig(cfg config.Conf) sink.Config {
	var sc sink.Config
	if cfg.MayBool("PG_ENABLED", false) {
		sc.PG = sink.PGConfig{
			Enabled:  true,
			URL:      cfg.MustString("PG_URL"),
			MaxConns: int32(cfg.MayInt("PG_MAX_CONNS", 4)),
		}
	}
	if cfg.MayBool("CH_ENABLED", false) {
		sc.CH = sink.CHConfig{
			Enabled: true,
			URL:     cfg.MustString("CH_URL"),
			Table:   cfg.MayString("CH_TABLE", ""),
		}
	}
	if cfg.MayBool("NATS_ENABLED", false) {
		sc.NATS = sink.NATSConfig{
			Enabled: true,
			URL:     cfg.MustString("NATS_URL"),
			Token:   cfg.MayString("NATS_TOKEN", ""),
			Subject: cfg.MayString("NATS_SUBJECT", ""),
		}
	}
	return sc
}
