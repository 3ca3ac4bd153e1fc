// Package telegram streams messages out of Telegram Desktop JSON exports.
//
// Exports look like:
//
//	{
//	  "name": "Chat Name",
//	  "type": "personal_chat",
//	  "messages": [
//	    {"id": 1, "type": "message", ...},
//	    {"id": 2, "type": "service", ...}
//	  ]
//	}
//
// Only entries with type "message" become messages; service entries (pins,
// calls, joins) are dropped during normalization.
package telegram

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"chatmill/internal/core/chat"
	"chatmill/internal/ingest"
	"chatmill/internal/ingest/jsonscan"
	perr "chatmill/internal/platform/errors"
)

// rawMessage mirrors one entry of the export's messages array
type rawMessage struct {
	ID             uint64          `json:"id"`
	Type           string          `json:"type"`
	DateUnixtime   string          `json:"date_unixtime"`
	From           string          `json:"from"`
	Text           json.RawMessage `json:"text"`
	ReplyTo        uint64          `json:"reply_to_message_id"`
	EditedUnixtime string          `json:"edited_unixtime"`
}

// Reader streams normalized messages from a Telegram export
type Reader struct {
	in   *ingest.Input
	sc   *jsonscan.Scanner
	cfg  ingest.Config
	msgs int64
	err  error
}

// NewReader positions the stream at the export's messages array
func NewReader(in *ingest.Input, cfg ingest.Config) (*Reader, error) {
	cfg = cfg.Normalize()
	sc, err := jsonscan.NewScanner(in, "messages", cfg)
	if err != nil {
		return nil, err
	}
	return &Reader{in: in, sc: sc, cfg: cfg}, nil
}

// Next returns the next message, or io.EOF once the array is exhausted
func (r *Reader) Next() (chat.Message, error) {
	if r.err != nil {
		return chat.Message{}, r.err
	}
	for {
		rec, err := r.sc.Next()
		if err == io.EOF {
			r.err = io.EOF
			return chat.Message{}, io.EOF
		}
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

		msg, ok, err := decode(rec)
		if err != nil {
			if r.cfg.SkipInvalid {
				continue
			}
			return chat.Message{}, err
		}
		if !ok {
			continue
		}
		r.msgs++
		return msg, nil
	}
}

// decode normalizes one raw record. ok is false for entries that are valid
// JSON but not chat messages (service entries, empty senders or bodies).
func decode(rec []byte) (chat.Message, bool, error) {
	var raw rawMessage
	if err := json.Unmarshal(rec, &raw); err != nil {
		return chat.Message{}, false, perr.Decodef("telegram record: %v", err)
	}
	if raw.Type != "message" || raw.From == "" {
		return chat.Message{}, false, nil
	}
	content := extractText(raw.Text)
	if !chat.HasContent(content) {
		return chat.Message{}, false, nil
	}

	return chat.Message{
		ID:        raw.ID,
		Timestamp: parseUnixtime(raw.DateUnixtime),
		Sender:    raw.From,
		Content:   content,
		ReplyTo:   raw.ReplyTo,
		Edited:    parseUnixtime(raw.EditedUnixtime),
	}, true, nil
}

// parseUnixtime reads Telegram's decimal-string epoch seconds; bad or
// missing values map to the zero time
func parseUnixtime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// extractText flattens Telegram's text field, which is either a plain
// string or an array of strings and rich-text runs like
// {"type":"bold","text":"world"}
func extractText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		var ps string
		if err := json.Unmarshal(p, &ps); err == nil {
			b.WriteString(ps)
			continue
		}
		var run struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(p, &run); err == nil {
			b.WriteString(run.Text)
		}
	}
	return b.String()
}

// Progress reports bytes consumed against the input size
func (r *Reader) Progress() ingest.Progress {
	return ingest.Progress{
		BytesProcessed: r.sc.BytesRead(),
		TotalBytes:     r.in.Size,
		TotalKnown:     r.in.SizeKnown,
		Messages:       r.msgs,
	}
}

// Close closes the underlying input
func (r *Reader) Close() error { return r.in.Close() }
