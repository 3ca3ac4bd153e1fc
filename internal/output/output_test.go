package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"chatmill/internal/core/chat"
	perr "chatmill/internal/platform/errors"
)

func sampleMessages() []chat.Message {
	ts := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	return []chat.Message{
		{ID: 1, Timestamp: ts, Sender: "Alice", Content: "Hello"},
		{ID: 2, Timestamp: ts.Add(time.Minute), Sender: "Bob", Content: "Hi; how are you?", ReplyTo: 1},
	}
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"JSON", FormatJSON, false},
		{" jsonl ", FormatJSONL, false},
		{"ndjson", FormatJSONL, false},
		{"xml", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tc.in)
			} else if perr.CodeOf(err) != perr.ErrorCodeInvalidArgument {
				t.Errorf("ParseFormat(%q): code = %v", tc.in, perr.CodeOf(err))
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFromPath(t *testing.T) {
	cases := []struct {
		path string
		want Format
	}{
		{"out.csv", FormatCSV},
		{"out.JSON", FormatJSON},
		{"export.jsonl", FormatJSONL},
		{"export.ndjson", FormatJSONL},
		{"plain.txt", FormatCSV},
		{"noext", FormatCSV},
	}
	for _, tc := range cases {
		if got := FromPath(tc.path); got != tc.want {
			t.Errorf("FromPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestWriteCSVBare(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleMessages(), Options{}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 records, got %d lines", len(lines))
	}
	if lines[0] != "Sender;Content" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "Alice;Hello" {
		t.Errorf("record = %q", lines[1])
	}
	// content containing the delimiter must be quoted
	if lines[2] != `Bob;"Hi; how are you?"` {
		t.Errorf("record = %q", lines[2])
	}
}

func TestWriteCSVAllFields(t *testing.T) {
	opt := Options{IncludeTimestamps: true, IncludeIDs: true, IncludeReplies: true, IncludeEdited: true}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleMessages(), opt); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[0] != "ID;Timestamp;Sender;Content;ReplyTo;Edited" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "1;2024-06-15 12:30:00;Alice;Hello;;" {
		t.Errorf("record = %q", lines[1])
	}
	if !strings.Contains(lines[2], ";1;") {
		t.Errorf("reply reference missing from %q", lines[2])
	}
}

func TestWriteCSVAbsentValues(t *testing.T) {
	msgs := []chat.Message{{Sender: "Carol", Content: "untimed"}}
	opt := Options{IncludeTimestamps: true, IncludeIDs: true}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, msgs, opt); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if lines[1] != ";;Carol;untimed" {
		t.Errorf("record = %q", lines[1])
	}
}

func TestWriteJSON(t *testing.T) {
	opt := Options{IncludeTimestamps: true, IncludeIDs: true}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleMessages(), opt); err != nil {
		t.Fatal(err)
	}

	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0]["sender"] != "Alice" || got[0]["content"] != "Hello" {
		t.Errorf("first record = %v", got[0])
	}
	if got[0]["timestamp"] != "2024-06-15T12:30:00Z" {
		t.Errorf("timestamp = %v", got[0]["timestamp"])
	}
	if got[0]["id"] != float64(1) {
		t.Errorf("id = %v", got[0]["id"])
	}
	// replies not enabled, so the field must be absent
	if _, ok := got[1]["reply_to"]; ok {
		t.Errorf("reply_to should be omitted: %v", got[1])
	}
}

func TestWriteJSONBareOmitsDisabledFields(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleMessages(), Options{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "timestamp") {
		t.Errorf("timestamp leaked into bare output:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), `"id"`) {
		t.Errorf("id leaked into bare output:\n%s", buf.String())
	}
}

func TestWriteJSONL(t *testing.T) {
	opt := Options{IncludeTimestamps: true, IncludeReplies: true}
	var buf bytes.Buffer
	if err := WriteJSONL(&buf, sampleMessages(), opt); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("line %d is not valid json: %v", i, err)
		}
	}
	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if second["reply_to"] != float64(1) {
		t.Errorf("reply_to = %v", second["reply_to"])
	}
}

func TestWriteDispatch(t *testing.T) {
	for _, f := range Formats() {
		var buf bytes.Buffer
		if err := Write(&buf, f, sampleMessages(), Options{}); err != nil {
			t.Errorf("Write(%v): %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Write(%v): empty output", f)
		}
	}
	if err := Write(&bytes.Buffer{}, Format("yaml"), nil, Options{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
