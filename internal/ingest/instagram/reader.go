// Package instagram streams messages out of Instagram/Meta JSON exports.
//
// Exports look like:
//
//	{
//	  "participants": [{"name": "user_one"}, {"name": "user_two"}],
//	  "messages": [
//	    {"sender_name": "user", "timestamp_ms": 1234567890000, "content": "..."}
//	  ]
//	}
//
// The array is newest-first in the file; order is preserved as written.
// Meta's mojibake encoding damage is repaired on every sender and body.
package instagram

import (
	"encoding/json"
	"io"
	"time"

	"chatmill/internal/core/chat"
	"chatmill/internal/ingest"
	"chatmill/internal/ingest/jsonscan"
	perr "chatmill/internal/platform/errors"
)

type rawShare struct {
	ShareText string `json:"share_text"`
	Link      string `json:"link"`
}

type rawMessage struct {
	SenderName  string    `json:"sender_name"`
	TimestampMS int64     `json:"timestamp_ms"`
	Content     *string   `json:"content"`
	Share       *rawShare `json:"share"`
}

// Reader streams normalized messages from an Instagram export
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

// decode normalizes one raw record. Content falls back to the share text
// for link shares. Records with no usable body are dropped.
func decode(rec []byte) (chat.Message, bool, error) {
	var raw rawMessage
	if err := json.Unmarshal(rec, &raw); err != nil {
		return chat.Message{}, false, perr.Decodef("instagram record: %v", err)
	}

	var content string
	switch {
	case raw.Content != nil:
		content = *raw.Content
	case raw.Share != nil:
		content = raw.Share.ShareText
	}
	content = FixMojibake(content)
	if !chat.HasContent(content) {
		return chat.Message{}, false, nil
	}

	var ts time.Time
	if raw.TimestampMS > 0 {
		ts = time.UnixMilli(raw.TimestampMS).UTC()
	}

	return chat.Message{
		Sender:    FixMojibake(raw.SenderName),
		Content:   content,
		Timestamp: ts,
	}, true, nil
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
