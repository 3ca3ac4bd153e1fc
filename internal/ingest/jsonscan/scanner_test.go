package jsonscan

import (
	"io"
	"strings"
	"testing"

	"chatmill/internal/ingest"
	perr "chatmill/internal/platform/errors"
)

func newTestScanner(t *testing.T, input string, cfg ingest.Config) *Scanner {
	t.Helper()
	s, err := NewScanner(strings.NewReader(input), "messages", cfg)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	return s
}

func drainRaw(t *testing.T, s *Scanner) []string {
	t.Helper()
	var out []string
	for {
		rec, err := s.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, string(rec))
	}
}

const sampleExport = `{
  "name": "Test Chat",
  "type": "personal_chat",
  "messages": [
    {"id": 1, "from": "Alice", "text": "Hello!"},
    {"id": 2, "from": "Bob", "text": "Hi!"},
    {
      "id": 3,
      "from": "Alice",
      "text": "Bye!"
    }
  ]
}`

func TestScannerCarvesObjects(t *testing.T) {
	t.Parallel()

	s := newTestScanner(t, sampleExport, ingest.DefaultConfig())
	recs := drainRaw(t, s)
	if len(recs) != 3 {
		t.Fatalf("records = %d, want 3", len(recs))
	}
	if recs[0] != `{"id": 1, "from": "Alice", "text": "Hello!"}` {
		t.Fatalf("record 0 = %q (trailing comma not stripped?)", recs[0])
	}
	if !strings.Contains(recs[2], `"id": 3`) || strings.HasSuffix(recs[2], ",") {
		t.Fatalf("multiline record = %q", recs[2])
	}

	// exhausted scanner keeps returning EOF
	if _, err := s.Next(); err != io.EOF {
		t.Fatalf("post-exhaustion Next = %v, want io.EOF", err)
	}
}

func TestScannerNestedObjects(t *testing.T) {
	t.Parallel()

	input := `{"messages": [
    {"id": 1, "reactions": {"emoji": {"count": 2}}},
    {"id": 2}
  ]}`
	s := newTestScanner(t, input, ingest.DefaultConfig())
	recs := drainRaw(t, s)
	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if !strings.Contains(recs[0], `"count": 2`) {
		t.Fatalf("nested record = %q", recs[0])
	}
}

func TestScannerMissingArray(t *testing.T) {
	t.Parallel()

	_, err := NewScanner(strings.NewReader(`{"name": "x"}`), "messages", ingest.DefaultConfig())
	if !perr.IsCode(err, perr.ErrorCodeStructural) {
		t.Fatalf("err = %v, want structural", err)
	}
}

func TestScannerTruncatedRecord(t *testing.T) {
	t.Parallel()

	input := `{"messages": [
    {"id": 1,
    "from": "Alice"`
	s := newTestScanner(t, input, ingest.DefaultConfig())
	_, err := s.Next()
	if !perr.IsCode(err, perr.ErrorCodeUnexpectedEOF) {
		t.Fatalf("err = %v, want unexpected EOF", err)
	}
	// scanner is terminal after truncation
	if _, err := s.Next(); err != io.EOF {
		t.Fatalf("Next after truncation = %v, want io.EOF", err)
	}
}

func TestScannerRecordTooLarge(t *testing.T) {
	t.Parallel()

	big := strings.Repeat("x", 300)
	input := "{\"messages\": [\n" +
		"  {\"id\": 1, \"text\": \"" + big + "\"},\n" +
		"  {\"id\": 2, \"text\": \"ok\"}\n" +
		"]}"
	cfg := ingest.DefaultConfig()
	cfg.MaxRecordSize = 128

	s := newTestScanner(t, input, cfg)
	_, err := s.Next()
	if !perr.IsCode(err, perr.ErrorCodeSizeLimit) {
		t.Fatalf("err = %v, want size limit", err)
	}
	if !strings.Contains(err.Error(), "128") {
		t.Fatalf("size limit message missing cap: %v", err)
	}
}

func TestScannerNoTrailingNewline(t *testing.T) {
	t.Parallel()

	input := `{"messages": [
    {"id": 1}
]}`
	s := newTestScanner(t, input, ingest.DefaultConfig())
	recs := drainRaw(t, s)
	if len(recs) != 1 || recs[0] != `{"id": 1}` {
		t.Fatalf("records = %v", recs)
	}
}

func TestScannerBytesRead(t *testing.T) {
	t.Parallel()

	s := newTestScanner(t, sampleExport, ingest.DefaultConfig())
	drainRaw(t, s)
	// everything up to the array's closing bracket is consumed; only the
	// document's final "}" line remains unread
	want := int64(len(sampleExport) - 1)
	if got := s.BytesRead(); got != want {
		t.Fatalf("BytesRead = %d, want %d", got, want)
	}
}

func TestScannerEmptyArray(t *testing.T) {
	t.Parallel()

	s := newTestScanner(t, "{\"messages\": [\n]}", ingest.DefaultConfig())
	if recs := drainRaw(t, s); len(recs) != 0 {
		t.Fatalf("records = %v, want none", recs)
	}
}
