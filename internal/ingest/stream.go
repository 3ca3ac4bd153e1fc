package ingest

import (
	"io"

	"chatmill/internal/core/chat"
)

// Stream yields normalized messages one at a time. Next returns io.EOF once
// the input is exhausted. With SkipInvalid set, undecodable records are
// passed over silently; without it they surface as errors, and the stream
// has already advanced past the bad record so the caller may keep pulling.
type Stream interface {
	// Next returns the next message, or io.EOF at end of input
	Next() (chat.Message, error)

	// Progress returns a snapshot of bytes and messages processed
	Progress() Progress

	// Close releases the underlying input
	Close() error
}

// Drain pulls the whole stream into memory. Intended for small inputs and
// tests; large exports should consume Next directly.
func Drain(s Stream) ([]chat.Message, error) {
	var out []chat.Message
	for {
		m, err := s.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
}
