// Package chat holds the normalized message model shared by every source
// reader, filter, and writer
package chat

import (
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Message is the universal representation a source reader emits.
// Sender and Content are always present; the rest is optional metadata.
// A zero Timestamp/Edited means the source did not provide one, and a
// zero ID/ReplyTo means the platform has no message IDs.
type Message struct {
	ID        uint64    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	ReplyTo   uint64    `json:"reply_to,omitempty"`
	Edited    time.Time `json:"edited,omitzero"`
}

// HasContent reports whether a best-effort content string survives
// normalization. Every reader applies this as its final keep/drop rule:
// bodies that trim to nothing are dropped.
func HasContent(content string) bool { return strings.TrimSpace(content) != "" }

// HasTimestamp reports whether the source provided a timestamp
func (m Message) HasTimestamp() bool { return !m.Timestamp.IsZero() }

// HasID reports whether the source provided a platform message ID
func (m Message) HasID() bool { return m.ID != 0 }

// SyntheticID returns a deterministic ID for platforms that have none
// (WhatsApp exports carry no message IDs). The high bit is set so synthetic
// IDs never collide with real platform IDs, which are small positive values.
func SyntheticID(sender string, ts time.Time, content string) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(strings.TrimSpace(sender))
	_, _ = h.WriteString("\x00")
	if !ts.IsZero() {
		_, _ = h.WriteString(ts.UTC().Format(time.RFC3339))
	}
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(content)
	v := h.Sum64() | (1 << 63)
	return v
}
