package ingest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	perr "chatmill/internal/platform/errors"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	c := DefaultConfig()
	if c.BufferSize != 64*1024 {
		t.Fatalf("BufferSize = %d", c.BufferSize)
	}
	if c.MaxRecordSize != 10*1024*1024 {
		t.Fatalf("MaxRecordSize = %d", c.MaxRecordSize)
	}
	if !c.SkipInvalid {
		t.Fatalf("SkipInvalid = false, want true")
	}
	if c.ProgressInterval != 10_000 {
		t.Fatalf("ProgressInterval = %d", c.ProgressInterval)
	}
}

func TestStreamingConfig(t *testing.T) {
	t.Parallel()

	c := StreamingConfig()
	if c.BufferSize != 256*1024 {
		t.Fatalf("BufferSize = %d", c.BufferSize)
	}
	if c.MaxRecordSize != DefaultMaxRecordSize || !c.SkipInvalid {
		t.Fatalf("unexpected config: %+v", c)
	}
}

func TestConfigNormalize(t *testing.T) {
	t.Parallel()

	c := Config{}.Normalize()
	if c.BufferSize != DefaultBufferSize || c.MaxRecordSize != DefaultMaxRecordSize {
		t.Fatalf("Normalize did not fill defaults: %+v", c)
	}
	// SkipInvalid stays as set
	if c.SkipInvalid {
		t.Fatalf("Normalize flipped SkipInvalid")
	}
}

func TestProgressPercentage(t *testing.T) {
	t.Parallel()

	if _, ok := (Progress{BytesProcessed: 5}).Percentage(); ok {
		t.Fatalf("unknown total should report ok=false")
	}
	pct, ok := (Progress{BytesProcessed: 50, TotalBytes: 200, TotalKnown: true}).Percentage()
	if !ok || pct != 25 {
		t.Fatalf("Percentage = %f, %v", pct, ok)
	}
	// a known-empty input is complete by definition
	pct, ok = (Progress{TotalKnown: true}).Percentage()
	if !ok || pct != 100 {
		t.Fatalf("empty input Percentage = %f, %v, want 100, true", pct, ok)
	}
	// never overshoots even when processed > total
	pct, _ = (Progress{BytesProcessed: 300, TotalBytes: 200, TotalKnown: true}).Percentage()
	if pct != 100 {
		t.Fatalf("Percentage clamped = %f, want 100", pct)
	}
}

func TestParsePlatform(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want Platform
	}{
		{"telegram", PlatformTelegram},
		{"TG", PlatformTelegram},
		{"whatsapp", PlatformWhatsApp},
		{"wa", PlatformWhatsApp},
		{"Instagram", PlatformInstagram},
		{"ig", PlatformInstagram},
		{"discord", PlatformDiscord},
		{"dc", PlatformDiscord},
	}
	for _, c := range cases {
		got, err := ParsePlatform(c.in)
		if err != nil || got != c.want {
			t.Fatalf("ParsePlatform(%q) = %v, %v", c.in, got, err)
		}
	}

	if _, err := ParsePlatform("signal"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("ParsePlatform(signal) err = %v, want invalid argument", err)
	}
}

func TestOpenPlainFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(p, []byte(`{"messages":[]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	in, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	if !in.SizeKnown || in.Size != int64(len(`{"messages":[]}`)) {
		t.Fatalf("Size = %d, known = %v", in.Size, in.SizeKnown)
	}
	if in.BasePath() != p {
		t.Fatalf("BasePath = %q", in.BasePath())
	}
}

func TestOpenGzip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write([]byte("hello world")); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}

	p := filepath.Join(t.TempDir(), "export.jsonl.gz")
	if err := os.WriteFile(p, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	in, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	if in.SizeKnown {
		t.Fatalf("compressed input should report an unknown size")
	}
	got := make([]byte, 32)
	n, _ := in.Read(got)
	if string(got[:n]) != "hello world" {
		t.Fatalf("decompressed = %q", got[:n])
	}
	if base := in.BasePath(); filepath.Ext(base) != ".jsonl" {
		t.Fatalf("BasePath = %q, want .jsonl", base)
	}
}

func TestOpenMissing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "nope.json"))
	if !perr.IsCode(err, perr.ErrorCodeIO) {
		t.Fatalf("err = %v, want IO code", err)
	}
}

func TestNewInputZstd(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zw.Write([]byte(`{"messages": []}`)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	in, err := NewInput(io.NopCloser(&buf), "export.json.zst", int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	if in.SizeKnown {
		t.Errorf("compressed input should report an unknown size")
	}
	if got := in.BasePath(); got != "export.json" {
		t.Errorf("BasePath = %q", got)
	}
	data, err := io.ReadAll(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"messages": []}` {
		t.Errorf("content = %q", data)
	}
}
