// Command chatmill converts a chat export into CSV, JSON, or JSONL.
//
//	chatmill <platform> <input> [flags]
//
// Platforms: telegram|tg, whatsapp|wa, instagram|ig, discord|dc.
// Inputs ending in .gz or .zst are decompressed on the fly.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"chatmill/internal/ingest"
	"chatmill/internal/output"
	"chatmill/internal/platform/config"
	"chatmill/internal/platform/logger"
	"chatmill/internal/services/convert"
	"chatmill/internal/sink"
)

func usage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, "usage: chatmill <platform> <input> [flags]\n\nplatforms: telegram|tg, whatsapp|wa, instagram|ig, discord|dc\n\nflags:\n")
	fs.PrintDefaults()
}

func main() {
	log := logger.Get()

	fs := flag.NewFlagSet("chatmill", flag.ExitOnError)
	outPath := fs.String("o", "", "output path, default stdout")
	format := fs.String("format", "", "output format: csv, json, jsonl (default inferred from -o)")
	from := fs.String("from", "", "keep messages on or after this date (YYYY-MM-DD)")
	to := fs.String("to", "", "keep messages on or before this date (YYYY-MM-DD)")
	sender := fs.String("sender", "", "keep messages from this sender only")
	merge := fs.Bool("merge", false, "merge consecutive messages from the same sender")
	timestamps := fs.Bool("timestamps", false, "include timestamps in output")
	ids := fs.Bool("ids", false, "include message ids in output")
	replies := fs.Bool("replies", false, "include reply references in output")
	edited := fs.Bool("edited", false, "include edit times in output")
	keepSystem := fs.Bool("keep-system", false, "keep platform system messages")
	strict := fs.Bool("strict", false, "fail on undecodable records instead of skipping them")
	fs.Usage = func() { usage(fs) }

	if len(os.Args) < 3 {
		usage(fs)
		os.Exit(2)
	}
	platformArg, inputArg := os.Args[1], os.Args[2]
	_ = fs.Parse(os.Args[3:])

	platform, err := ingest.ParsePlatform(platformArg)
	if err != nil {
		log.Fatal().Err(err).Msg("bad platform")
	}

	opts, err := buildOptions(platform, *format, *outPath, *from, *to, *sender)
	if err != nil {
		log.Fatal().Err(err).Msg("bad arguments")
	}
	opts.Merge = *merge
	opts.Fields = output.Options{
		IncludeTimestamps: *timestamps,
		IncludeIDs:        *ids,
		IncludeReplies:    *replies,
		IncludeEdited:     *edited,
	}
	opts.Ingest = ingest.DefaultConfig()
	opts.Ingest.KeepSystemMessages = *keepSystem
	opts.Ingest.SkipInvalid = !*strict

	ctx := context.Background()

	sinks, err := sink.Open(ctx, sinkConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("open sinks")
	}
	defer sinks.Close()

	in, err := ingest.Open(inputArg)
	if err != nil {
		log.Fatal().Err(err).Msg("open input")
	}

	w, closeOut, err := openOutput(*outPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open output")
	}

	res, err := convert.Run(ctx, in, w, opts, sinks)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatal().Err(err).Msg("conversion failed")
	}

	ev := log.Info().
		Int("messages", res.Stats.OriginalCount).
		Int("written", res.Stats.MergedCount)
	if res.Stats.FilteredCount >= 0 {
		ev = ev.Int("filtered", res.Stats.FilteredCount)
	}
	if *merge {
		ev = ev.Float64("compression_pct", res.Stats.CompressionRatio())
	}
	ev.Msg("done")
}

func buildOptions(platform ingest.Platform, format, outPath, from, to, sender string) (convert.Options, error) {
	opts := convert.Options{Platform: platform}

	var err error
	if format != "" {
		if opts.Format, err = output.ParseFormat(format); err != nil {
			return opts, err
		}
	} else if outPath != "" && outPath != "-" {
		opts.Format = output.FromPath(outPath)
	} else {
		opts.Format = output.FormatCSV
	}

	if from != "" {
		if err = opts.Filter.ParseDateFrom(from); err != nil {
			return opts, err
		}
	}
	if to != "" {
		if err = opts.Filter.ParseDateTo(to); err != nil {
			return opts, err
		}
	}
	opts.Filter.Sender = sender
	return opts, nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// sinkConfig reads the optional storage backends from SINK_* env vars
func sinkConfig() sink.Config {
	cfg := config.New().Prefix("SINK_")
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
