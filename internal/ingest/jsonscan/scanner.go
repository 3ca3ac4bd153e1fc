// Package jsonscan carves individual JSON objects out of a large array
// embedded in an export file, without parsing the whole document. It works
// line by line and tracks brace depth, so memory stays bounded by the
// largest single record.
//
// The depth counter does not track JSON string state, so a brace inside a
// string value can misalign record boundaries. Export writers emit one
// field per line and never split records mid-string, which keeps the
// heuristic safe for the files this package reads; a miscarved record
// fails to decode downstream and is handled there.
package jsonscan

import (
	"bufio"
	"io"
	"strings"

	"chatmill/internal/ingest"
	perr "chatmill/internal/platform/errors"
)

// locateCap bounds how far into the file we search for the array key
const locateCap = 10 * 1024 * 1024

// Scanner yields raw JSON objects from a named array one at a time
type Scanner struct {
	br        *bufio.Reader
	maxRecord int
	bytesRead int64
	buf       strings.Builder
	finished  bool
	sawEOF    bool
}

// NewScanner locates the opening of the named array (e.g. "messages")
// before returning. It fails with a structural error when the key cannot
// be found in the leading portion of the input.
func NewScanner(r io.Reader, key string, cfg ingest.Config) (*Scanner, error) {
	cfg = cfg.Normalize()
	s := &Scanner{
		br:        bufio.NewReaderSize(r, cfg.BufferSize),
		maxRecord: cfg.MaxRecordSize,
	}

	quoted := `"` + key + `"`
	for {
		line, err := s.readLine()
		if len(line) == 0 && err != nil {
			if err == io.EOF {
				return nil, perr.Structuralf("could not find %q array in file", key)
			}
			return nil, err
		}
		if strings.Contains(line, quoted) && strings.Contains(line, "[") {
			return s, nil
		}
		if s.bytesRead > locateCap {
			return nil, perr.Structuralf("file header too large or %q array not found", key)
		}
	}
}

// readLine returns the next line including its newline. At end of input it
// returns ("", io.EOF). Read failures come back as IO-coded errors.
func (s *Scanner) readLine() (string, error) {
	if s.sawEOF {
		return "", io.EOF
	}
	line, err := s.br.ReadString('\n')
	s.bytesRead += int64(len(line))
	if err == io.EOF {
		s.sawEOF = true
		if len(line) > 0 {
			return line, nil
		}
		return "", io.EOF
	}
	if err != nil {
		return line, perr.IOErrf(err, "read input")
	}
	return line, nil
}

// Next returns the raw bytes of the next object in the array, with any
// trailing comma stripped. It returns io.EOF at the closing bracket or at
// end of input. Scanner state resets between calls, so a caller may keep
// pulling after a size-limit or truncation error.
func (s *Scanner) Next() ([]byte, error) {
	if s.finished {
		return nil, io.EOF
	}

	s.buf.Reset()
	depth := 0
	foundStart := false

	for {
		line, err := s.readLine()
		if len(line) == 0 && err != nil {
			if err == io.EOF {
				s.finished = true
				if foundStart {
					return nil, perr.UnexpectedEOFf("input truncated mid record")
				}
				return nil, io.EOF
			}
			return nil, err
		}

		trimmed := strings.TrimSpace(line)

		// closing bracket before any object means the array is done
		if !foundStart && strings.HasPrefix(trimmed, "]") {
			s.finished = true
			return nil, io.EOF
		}

		// blank lines and bare commas between objects
		if !foundStart && (trimmed == "" || trimmed == ",") {
			continue
		}

		for i := 0; i < len(line); i++ {
			switch line[i] {
			case '{':
				foundStart = true
				depth++
			case '}':
				depth--
			}
		}

		if !foundStart {
			continue
		}

		s.buf.WriteString(line)
		if s.buf.Len() > s.maxRecord {
			return nil, perr.SizeLimitf(s.maxRecord, s.buf.Len())
		}

		if depth == 0 {
			rec := strings.TrimSuffix(strings.TrimSpace(s.buf.String()), ",")
			return []byte(rec), nil
		}
	}
}

// BytesRead reports total bytes consumed from the input, including the
// header before the array
func (s *Scanner) BytesRead() int64 { return s.bytesRead }
