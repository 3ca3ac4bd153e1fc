// Package discord streams messages out of DiscordChatExporter dumps.
// Both container shapes are handled: JSONL, where every line is one
// message, and the regular JSON export with a top-level "messages" array.
package discord

import (
	"bufio"
	"bytes"
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

type rawAuthor struct {
	Name     string  `json:"name"`
	Nickname *string `json:"nickname"`
}

type rawAttachment struct {
	FileName string `json:"fileName"`
}

type rawSticker struct {
	Name string `json:"name"`
}

type rawReference struct {
	MessageID string `json:"messageId"`
}

type rawMessage struct {
	ID              string          `json:"id"`
	Timestamp       string          `json:"timestamp"`
	TimestampEdited *string         `json:"timestampEdited"`
	Content         string          `json:"content"`
	Author          rawAuthor       `json:"author"`
	Attachments     []rawAttachment `json:"attachments"`
	Stickers        []rawSticker    `json:"stickers"`
	Reference       *rawReference   `json:"reference"`
}

// Reader streams normalized messages from a Discord export
type Reader struct {
	in    *ingest.Input
	br    *bufio.Reader
	sc    *jsonscan.Scanner // nil in JSONL mode
	cfg   ingest.Config
	bytes int64
	msgs  int64
	err   error
}

// NewReader sniffs the container shape and positions the stream at the
// first message
func NewReader(in *ingest.Input, cfg ingest.Config) (*Reader, error) {
	cfg = cfg.Normalize()
	br := bufio.NewReaderSize(in, cfg.BufferSize)
	r := &Reader{in: in, br: br, cfg: cfg}

	if !isJSONL(in, br) {
		sc, err := jsonscan.NewScanner(br, "messages", cfg)
		if err != nil {
			return nil, err
		}
		r.sc = sc
	}
	return r, nil
}

// isJSONL decides between line-oriented and array-container exports. A
// .jsonl extension settles it; otherwise the first line is sniffed: a
// complete object with no "messages"/"guild" key means one message per line.
// Pretty-printed containers open with a bare "{" line and fall through to
// the array path.
func isJSONL(in *ingest.Input, br *bufio.Reader) bool {
	if strings.HasSuffix(in.BasePath(), ".jsonl") {
		return true
	}
	peek, _ := br.Peek(br.Size())
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	first := strings.TrimSpace(string(peek))
	return strings.HasPrefix(first, "{") &&
		strings.HasSuffix(first, "}") &&
		!strings.Contains(first, `"messages"`) &&
		!strings.Contains(first, `"guild"`)
}

// Next returns the next message, or io.EOF once the export is exhausted
func (r *Reader) Next() (chat.Message, error) {
	if r.err != nil {
		return chat.Message{}, r.err
	}
	if r.sc != nil {
		return r.nextCarved()
	}
	return r.nextLine()
}

func (r *Reader) nextCarved() (chat.Message, error) {
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

func (r *Reader) nextLine() (chat.Message, error) {
	for {
		line, err := r.br.ReadString('\n')
		r.bytes += int64(len(line))
		if len(line) == 0 && err != nil {
			if err == io.EOF {
				r.err = io.EOF
				return chat.Message{}, io.EOF
			}
			r.err = perr.IOErrf(err, "read input")
			return chat.Message{}, r.err
		}
		if err != nil && err != io.EOF {
			r.err = perr.IOErrf(err, "read input")
			return chat.Message{}, r.err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		msg, ok, derr := decode([]byte(trimmed))
		if derr != nil {
			if r.cfg.SkipInvalid {
				continue
			}
			return chat.Message{}, derr
		}
		if !ok {
			continue
		}
		r.msgs++
		return msg, nil
	}
}

// decode normalizes one raw record. Attachment filenames and sticker names
// are appended to the body as placeholders so media-only messages survive
// as text. ok is false for records with nothing to keep.
func decode(rec []byte) (chat.Message, bool, error) {
	var raw rawMessage
	if err := json.Unmarshal(rec, &raw); err != nil {
		return chat.Message{}, false, perr.Decodef("discord record: %v", err)
	}

	if !chat.HasContent(raw.Content) && len(raw.Attachments) == 0 && len(raw.Stickers) == 0 {
		return chat.Message{}, false, nil
	}

	var b strings.Builder
	b.WriteString(raw.Content)
	for _, att := range raw.Attachments {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[Attachment: " + att.FileName + "]")
	}
	for _, st := range raw.Stickers {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[Sticker: " + st.Name + "]")
	}

	sender := raw.Author.Name
	if raw.Author.Nickname != nil && *raw.Author.Nickname != "" {
		sender = *raw.Author.Nickname
	}

	m := chat.Message{
		Sender:    sender,
		Content:   b.String(),
		Timestamp: parseRFC3339(raw.Timestamp),
	}
	if id, err := strconv.ParseUint(raw.ID, 10, 64); err == nil {
		m.ID = id
	}
	if raw.Reference != nil {
		if rid, err := strconv.ParseUint(raw.Reference.MessageID, 10, 64); err == nil {
			m.ReplyTo = rid
		}
	}
	if raw.TimestampEdited != nil {
		m.Edited = parseRFC3339(*raw.TimestampEdited)
	}
	return m, true, nil
}

// parseRFC3339 reads Discord's ISO-8601 timestamps; bad or missing values
// map to the zero time
func parseRFC3339(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Progress reports bytes consumed against the input size
func (r *Reader) Progress() ingest.Progress {
	read := r.bytes
	if r.sc != nil {
		read = r.sc.BytesRead()
	}
	return ingest.Progress{BytesProcessed: read, TotalBytes: r.in.Size, TotalKnown: r.in.SizeKnown, Messages: r.msgs}
}

// Close closes the underlying input
func (r *Reader) Close() error { return r.in.Close() }
