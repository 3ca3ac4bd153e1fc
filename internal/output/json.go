package output

import (
	"encoding/json"
	"io"

	"chatmill/internal/core/chat"
	perr "chatmill/internal/platform/errors"
)

const jsonTimeLayout = "2006-01-02T15:04:05Z"

// record is the projected wire shape shared by JSON and JSONL output.
// Optional fields are pointers so disabled or absent values vanish
// from the encoding entirely
type record struct {
	Sender    string  `json:"sender"`
	Content   string  `json:"content"`
	Timestamp *string `json:"timestamp,omitempty"`
	ID        *uint64 `json:"id,omitempty"`
	ReplyTo   *uint64 `json:"reply_to,omitempty"`
	Edited    *string `json:"edited,omitempty"`
}

func project(m *chat.Message, opt Options) record {
	rec := record{Sender: m.Sender, Content: m.Content}
	if opt.IncludeTimestamps && m.HasTimestamp() {
		ts := m.Timestamp.UTC().Format(jsonTimeLayout)
		rec.Timestamp = &ts
	}
	if opt.IncludeIDs && m.HasID() {
		id := m.ID
		rec.ID = &id
	}
	if opt.IncludeReplies && m.ReplyTo != 0 {
		rt := m.ReplyTo
		rec.ReplyTo = &rt
	}
	if opt.IncludeEdited && !m.Edited.IsZero() {
		ed := m.Edited.UTC().Format(jsonTimeLayout)
		rec.Edited = &ed
	}
	return rec
}

// WriteJSON writes messages as an indented JSON array
func WriteJSON(w io.Writer, msgs []chat.Message, opt Options) error {
	recs := make([]record, len(msgs))
	for i := range msgs {
		recs[i] = project(&msgs[i], opt)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(recs); err != nil {
		return perr.IOErrf(err, "encode json array")
	}
	return nil
}
