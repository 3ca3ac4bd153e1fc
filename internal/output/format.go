// Package output renders normalized chat messages to CSV, JSON, or JSONL.
package output

import (
	"path/filepath"
	"strings"

	perr "chatmill/internal/platform/errors"
)

// Format identifies an output encoding
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
)

// Formats returns all supported formats in display order
func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatJSONL}
}

// ParseFormat maps a user-supplied format name onto a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	default:
		return "", perr.InvalidArgf("unknown output format %q", s)
	}
}

// FromPath infers the format from a file extension. Unrecognized
// extensions fall back to CSV
func FromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatCSV
	}
}

// Options selects which optional message fields appear in the output.
// Sender and content are always written
type Options struct {
	IncludeTimestamps bool
	IncludeIDs        bool
	IncludeReplies    bool
	IncludeEdited     bool
}
