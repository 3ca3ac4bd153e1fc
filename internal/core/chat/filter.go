package chat

import (
	"strings"
	"time"

	perr "chatmill/internal/platform/errors"
)

// Filter selects messages by date range and sender. Zero value passes
// everything. All active criteria combine with AND.
type Filter struct {
	// After includes only messages at or after this instant
	After time.Time

	// Before includes only messages at or before this instant
	Before time.Time

	// Sender includes only messages from this sender (case-insensitive)
	Sender string
}

// ParseDateFrom sets After to the start of the given YYYY-MM-DD day (UTC)
func (f *Filter) ParseDateFrom(s string) error {
	d, err := parseDay(s)
	if err != nil {
		return err
	}
	f.After = d
	return nil
}

// ParseDateTo sets Before to the end of the given YYYY-MM-DD day (UTC),
// so the whole day is included
func (f *Filter) ParseDateTo(s string) error {
	d, err := parseDay(s)
	if err != nil {
		return err
	}
	f.Before = d.Add(24*time.Hour - time.Second)
	return nil
}

func parseDay(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, perr.InvalidArgf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d.UTC(), nil
}

// Active reports whether any criterion is set
func (f Filter) Active() bool {
	return !f.After.IsZero() || !f.Before.IsZero() || f.Sender != ""
}

// hasDateFilter reports whether a date bound is set
func (f Filter) hasDateFilter() bool { return !f.After.IsZero() || !f.Before.IsZero() }

// Match reports whether m passes all active criteria.
// Messages without timestamps are excluded when a date bound is active.
func (f Filter) Match(m Message) bool {
	if f.Sender != "" && !strings.EqualFold(f.Sender, m.Sender) {
		return false
	}
	if f.hasDateFilter() {
		if !m.HasTimestamp() {
			return false
		}
		if !f.After.IsZero() && m.Timestamp.Before(f.After) {
			return false
		}
		if !f.Before.IsZero() && m.Timestamp.After(f.Before) {
			return false
		}
	}
	return true
}

// Apply returns the messages that pass the filter. If no criterion is
// active the input slice is returned as-is.
func (f Filter) Apply(msgs []Message) []Message {
	if !f.Active() {
		return msgs
	}
	out := msgs[:0:0]
	for _, m := range msgs {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out
}
