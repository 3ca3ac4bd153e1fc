package api

import (
	"bytes"
	stdhttp "net/http"
	"strconv"

	"chatmill/internal/core/chat"
	"chatmill/internal/ingest"
	"chatmill/internal/output"
	perr "chatmill/internal/platform/errors"
	phttp "chatmill/internal/platform/net/http"
	"chatmill/internal/platform/net/http/bind"
	"chatmill/internal/services/convert"
)

type handlers struct {
	opts Options
}

func (h *handlers) health(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	phttp.RespondOK(w, r, map[string]string{"status": "ok"})
}

// formats lists the accepted platforms and output formats
func (h *handlers) formats(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	phttp.RespondOK(w, r, map[string]any{
		"platforms": ingest.Platforms(),
		"formats":   output.Formats(),
	})
}

// convertRequest carries the non-file form fields of a convert call
type convertRequest struct {
	Platform string `json:"platform" validate:"required"`
	Format   string `json:"format"`
	From     string `json:"from"`
	To       string `json:"to"`
	Sender   string `json:"sender"`
}

func (h *handlers) convert(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	r.Body = stdhttp.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		phttp.RespondError(w, r, perr.Decodef("parse multipart form: %v", err))
		return
	}

	req := convertRequest{
		Platform: r.FormValue("platform"),
		Format:   r.FormValue("format"),
		From:     r.FormValue("from"),
		To:       r.FormValue("to"),
		Sender:   r.FormValue("sender"),
	}
	if err := bind.Validate(req); err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	opts, err := h.buildOptions(r, req)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		phttp.RespondError(w, r, perr.Decodef("missing file field"))
		return
	}
	in, err := ingest.NewInput(file, header.Filename, header.Size)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	res, err := convert.Run(r.Context(), in, &buf, opts, h.opts.Sinks)
	if err != nil {
		phttp.RespondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType(opts.Format))
	w.Header().Set("X-Run-ID", res.Run)
	w.Header().Set("X-Message-Count", strconv.Itoa(res.Stats.MergedCount))
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = buf.WriteTo(w)
}

// buildOptions turns validated form fields into pipeline options
func (h *handlers) buildOptions(r *stdhttp.Request, req convertRequest) (convert.Options, error) {
	var opts convert.Options

	platform, err := ingest.ParsePlatform(req.Platform)
	if err != nil {
		return opts, err
	}
	format := output.FormatCSV
	if req.Format != "" {
		if format, err = output.ParseFormat(req.Format); err != nil {
			return opts, err
		}
	}

	var filter chat.Filter
	if req.From != "" {
		if err = filter.ParseDateFrom(req.From); err != nil {
			return opts, err
		}
	}
	if req.To != "" {
		if err = filter.ParseDateTo(req.To); err != nil {
			return opts, err
		}
	}
	filter.Sender = req.Sender

	cfg := h.opts.Ingest
	cfg.KeepSystemMessages = formBool(r, "keep_system", cfg.KeepSystemMessages)
	cfg.SkipInvalid = formBool(r, "skip_invalid", true)

	return convert.Options{
		Platform: platform,
		Format:   format,
		Filter:   filter,
		Merge:    formBool(r, "merge", false),
		Fields: output.Options{
			IncludeTimestamps: formBool(r, "include_timestamps", false),
			IncludeIDs:        formBool(r, "include_ids", false),
			IncludeReplies:    formBool(r, "include_replies", false),
			IncludeEdited:     formBool(r, "include_edited", false),
		},
		Ingest: cfg,
	}, nil
}

func formBool(r *stdhttp.Request, key string, def bool) bool {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func contentType(f output.Format) string {
	switch f {
	case output.FormatJSON:
		return "application/json; charset=utf-8"
	case output.FormatJSONL:
		return "application/x-ndjson; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}
