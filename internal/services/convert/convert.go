// Package convert orchestrates the streaming pipeline: dialect reader,
// filter, merge, then output writer and optional sinks
package convert

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"chatmill/internal/core/chat"
	"chatmill/internal/ingest"
	"chatmill/internal/output"
	"chatmill/internal/platform/logger"
	"chatmill/internal/sink"
)

// Options selects what Run does with the stream
type Options struct {
	Platform ingest.Platform
	Format   output.Format
	Filter   chat.Filter
	Merge    bool
	Fields   output.Options
	Ingest   ingest.Config
}

// Result reports what a run produced
type Result struct {
	Run      string
	Stats    chat.Stats
	Progress ingest.Progress
}

// Run pulls the whole stream, applies filter and merge, writes the
// rendered document to w, and forwards the batch to any enabled sinks.
// Each run is stamped with a uuid carried on the context logger
func Run(ctx context.Context, in *ingest.Input, w io.Writer, opts Options, sinks *sink.Multi) (*Result, error) {
	run := uuid.NewString()
	ctx = logger.WithRun(ctx, run)
	log := logger.C(ctx)

	s, err := OpenStream(opts.Platform, in, opts.Ingest)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	ev := log.Info().
		Str("platform", string(opts.Platform)).
		Str("path", in.Path)
	if in.SizeKnown {
		ev = ev.Int64("total_bytes", in.Size)
	}
	ev.Msg("conversion started")

	msgs, err := collect(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	prog := s.Progress()

	original := len(msgs)
	filtered := -1
	if opts.Filter.Active() {
		msgs = opts.Filter.Apply(msgs)
		filtered = len(msgs)
	}
	if opts.Merge {
		msgs = chat.MergeConsecutive(msgs)
	}
	stats := chat.NewStats(original, len(msgs))
	if filtered >= 0 {
		stats = stats.WithFiltered(filtered)
	}

	format := opts.Format
	if format == "" {
		format = output.FormatCSV
	}
	if err := output.Write(w, format, msgs, opts.Fields); err != nil {
		return nil, err
	}
	if err := sinks.Write(ctx, run, msgs); err != nil {
		return nil, err
	}

	log.Info().
		Int("messages", stats.OriginalCount).
		Int("written", len(msgs)).
		Int64("bytes", prog.BytesProcessed).
		Float64("compression", stats.CompressionRatio()).
		Msg("conversion finished")

	return &Result{Run: run, Stats: stats, Progress: prog}, nil
}

// collect drains the stream, logging a progress snapshot at the
// configured interval
func collect(ctx context.Context, s ingest.Stream, opts Options) ([]chat.Message, error) {
	log := logger.C(ctx)
	interval := opts.Ingest.Normalize().ProgressInterval

	var msgs []chat.Message
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := s.Next()
		if errors.Is(err, io.EOF) {
			return msgs, nil
		}
		if err != nil {
			// reader errors are already coded, pass them through
			return nil, err
		}
		msgs = append(msgs, m)

		if interval > 0 && len(msgs)%interval == 0 {
			p := s.Progress()
			ev := log.Info().
				Int64("messages", p.Messages).
				Int64("bytes", p.BytesProcessed)
			if pct, ok := p.Percentage(); ok {
				ev = ev.Float64("percent", pct)
			}
			ev.Msg("progress")
		}
	}
}
