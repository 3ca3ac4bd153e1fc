// Package sink fans converted messages out to optional storage backends.
// Backends not enabled in Config stay nil and cost nothing
package sink

import (
	"context"
	"time"

	"chatmill/internal/core/chat"
	"chatmill/internal/platform/logger"
)

// Sink receives batches of normalized messages
type Sink interface {
	Write(ctx context.Context, run string, msgs []chat.Message) error
	Close() error
}

// Config aggregates per backend configuration
type Config struct {
	PG   PGConfig
	CH   CHConfig
	NATS NATSConfig
}

// PGConfig configures postgres connectivity
type PGConfig struct {
	Enabled  bool
	URL      string
	MaxConns int32

	// Boot knobs, zero values pick the defaults below
	ConnectRetries int
	PingTimeout    time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
	Table   string
}

// NATSConfig configures nats connectivity
type NATSConfig struct {
	Enabled bool
	URL     string
	Token   string
	Subject string
}

// Multi is the facade over all enabled backends.
// The zero value is safe and writes nowhere
type Multi struct {
	log   *logger.Logger
	sinks []Sink
}

// Open constructs a Multi with the backends enabled in cfg
func Open(ctx context.Context, cfg Config) (*Multi, error) {
	m := &Multi{log: logger.Named("sink")}

	if cfg.PG.Enabled {
		s, err := openPG(ctx, cfg.PG)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.sinks = append(m.sinks, s)
		m.log.Info().Msg("postgres sink ready")
	}
	if cfg.CH.Enabled {
		s, err := openCH(ctx, cfg.CH)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.sinks = append(m.sinks, s)
		m.log.Info().Str("table", cfg.CH.Table).Msg("clickhouse sink ready")
	}
	if cfg.NATS.Enabled {
		s, err := openNATS(cfg.NATS)
		if err != nil {
			m.Close()
			return nil, err
		}
		m.sinks = append(m.sinks, s)
		m.log.Info().Str("subject", cfg.NATS.Subject).Msg("nats sink ready")
	}
	return m, nil
}

// Enabled reports whether any backend is configured
func (m *Multi) Enabled() bool { return m != nil && len(m.sinks) > 0 }

// Write fills missing message IDs and hands the batch to every backend.
// The first backend error stops the fan-out
func (m *Multi) Write(ctx context.Context, run string, msgs []chat.Message) error {
	if !m.Enabled() || len(msgs) == 0 {
		return nil
	}
	FillIDs(msgs)
	for _, s := range m.sinks {
		if err := s.Write(ctx, run, msgs); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every backend, keeping the first error
func (m *Multi) Close() error {
	if m == nil {
		return nil
	}
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	m.sinks = nil
	return first
}

// FillIDs assigns deterministic synthetic IDs to messages that carry none,
// so repeat runs over the same export stay idempotent at the store
func FillIDs(msgs []chat.Message) {
	for i := range msgs {
		if !msgs[i].HasID() {
			msgs[i].ID = chat.SyntheticID(msgs[i].Sender, msgs[i].Timestamp, msgs[i].Content)
		}
	}
}
