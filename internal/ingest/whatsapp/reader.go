// Package whatsapp streams messages out of WhatsApp plaintext exports.
//
// Exports are line oriented but the date format depends on the exporting
// device's locale, so the reader samples the first lines of the file,
// scores every known grammar against them, and parses the rest of the
// file under the winner. Messages span multiple lines; a line that does
// not match the header grammar continues the previous message.
package whatsapp

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"

	"chatmill/internal/core/chat"
	"chatmill/internal/ingest"
	perr "chatmill/internal/platform/errors"
)

// sampleLines is how many leading lines feed grammar detection
const sampleLines = 20

// pending accumulates a message whose continuation lines may still follow
type pending struct {
	sender  string
	content string
	ts      time.Time
}

func (p *pending) empty() bool { return p.sender == "" }

func (p *pending) take() pending {
	out := *p
	*p = pending{}
	return out
}

// finish turns the accumulated lines into a message. ok is false for
// blank bodies and, unless keepSystem is set, housekeeping lines.
func (p pending) finish(keepSystem bool) (chat.Message, bool) {
	content := strings.TrimSpace(p.content)
	if p.sender == "" || !chat.HasContent(content) {
		return chat.Message{}, false
	}
	if !keepSystem && IsSystemMessage(p.sender, p.content) {
		return chat.Message{}, false
	}
	return chat.Message{Sender: p.sender, Content: content, Timestamp: p.ts}, true
}

// Reader streams normalized messages from a WhatsApp export
type Reader struct {
	in       *ingest.Input
	br       *bufio.Reader
	cfg      ingest.Config
	grammar  Grammar
	re       *regexp.Regexp
	pending  pending
	queued   []chat.Message
	bytes    int64
	msgs     int64
	finished bool
	err      error
}

// NewReader samples the head of the file to pick a grammar. It fails with
// a structural error when no grammar matches any sampled line.
func NewReader(in *ingest.Input, cfg ingest.Config) (*Reader, error) {
	cfg = cfg.Normalize()
	r := &Reader{
		in:  in,
		br:  bufio.NewReaderSize(in, cfg.BufferSize),
		cfg: cfg,
	}

	var sample []string
	for range sampleLines {
		line, ok, err := r.readLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		sample = append(sample, line)
	}

	g, ok := DetectGrammar(sample)
	if !ok {
		return nil, perr.Structuralf("no recognized message format in first %d lines", sampleLines)
	}
	r.grammar = g
	r.re = g.Pattern()

	// replay the sampled lines through the normal state machine, queuing
	// any messages they complete
	for _, line := range sample {
		r.processLine(line)
	}
	return r, nil
}

// readLine returns the next line including its newline; ok is false at EOF
func (r *Reader) readLine() (string, bool, error) {
	line, err := r.br.ReadString('\n')
	r.bytes += int64(len(line))
	if len(line) == 0 {
		if err == io.EOF {
			return "", false, nil
		}
		return "", false, perr.IOErrf(err, "read input")
	}
	if err != nil && err != io.EOF {
		return "", false, perr.IOErrf(err, "read input")
	}
	return line, true, nil
}

// processLine advances the accumulator: a header line queues the pending
// message and starts a new one, anything else extends the current body.
// Continuation lines before the first header are discarded.
func (r *Reader) processLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	if m := r.re.FindStringSubmatch(line); m != nil {
		if !r.pending.empty() {
			if msg, ok := r.pending.take().finish(r.cfg.KeepSystemMessages); ok {
				r.queued = append(r.queued, msg)
			}
		}
		r.pending = pending{
			sender:  strings.TrimSpace(m[3]),
			content: m[4],
			ts:      parseTimestamp(m[1], m[2], r.grammar),
		}
		return
	}

	if !r.pending.empty() {
		r.pending.content += "\n" + strings.TrimRight(line, " \t\r\n")
	}
}

// Next returns the next message, or io.EOF once the export is exhausted
func (r *Reader) Next() (chat.Message, error) {
	for {
		if len(r.queued) > 0 {
			msg := r.queued[0]
			r.queued = r.queued[1:]
			r.msgs++
			return msg, nil
		}
		if r.err != nil {
			return chat.Message{}, r.err
		}
		if r.finished {
			r.err = io.EOF
			return chat.Message{}, io.EOF
		}

		line, ok, err := r.readLine()
		if err != nil {
			// read failures are fatal; the skip policy only covers
			// per-record problems
			if perr.IsCode(err, perr.ErrorCodeIO) {
				r.err = err
				return chat.Message{}, err
			}
			if r.cfg.SkipInvalid {
				continue
			}
			return chat.Message{}, err
		}
		if !ok {
			r.finished = true
			if msg, mok := r.pending.take().finish(r.cfg.KeepSystemMessages); mok {
				r.queued = append(r.queued, msg)
			}
			continue
		}
		r.processLine(line)
	}
}

// Progress reports bytes consumed against the input size
func (r *Reader) Progress() ingest.Progress {
	return ingest.Progress{BytesProcessed: r.bytes, TotalBytes: r.in.Size, TotalKnown: r.in.SizeKnown, Messages: r.msgs}
}

// Close closes the underlying input
func (r *Reader) Close() error { return r.in.Close() }
