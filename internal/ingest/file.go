package ingest

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	perr "chatmill/internal/platform/errors"
)

// Input is an open export ready for streaming. For compressed inputs the
// uncompressed total is unknown up front and SizeKnown is false.
type Input struct {
	io.ReadCloser

	// Path is the file the input was opened from
	Path string

	// Size is the input size in bytes; only meaningful when SizeKnown
	Size int64

	// SizeKnown reports whether Size was determined when opening
	SizeKnown bool
}

type zstdReadCloser struct {
	*zstd.Decoder
	rc io.ReadCloser
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return z.rc.Close()
}

type gzipReadCloser struct {
	*gzip.Reader
	rc io.ReadCloser
}

func (g gzipReadCloser) Close() error {
	if err := g.Reader.Close(); err != nil {
		_ = g.rc.Close()
		return err
	}
	return g.rc.Close()
}

// NewInput wraps an already-open reader, transparently decompressing when
// path carries a .gz or .zst extension. size is the raw byte count; pass a
// negative value when it is unknown. Compressed inputs always report an
// unknown size
func NewInput(rc io.ReadCloser, path string, size int64) (*Input, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		gz, err := gzip.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, perr.IOErrf(err, "open gzip %s", path)
		}
		return &Input{ReadCloser: gzipReadCloser{gz, rc}, Path: path}, nil

	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		zr, err := zstd.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, perr.IOErrf(err, "open zstd %s", path)
		}
		return &Input{ReadCloser: zstdReadCloser{zr, rc}, Path: path}, nil
	}
	if size < 0 {
		return &Input{ReadCloser: rc, Path: path}, nil
	}
	return &Input{ReadCloser: rc, Path: path, Size: size, SizeKnown: true}, nil
}

// Open opens an export file, transparently decompressing .gz and .zst inputs
func Open(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.IOErrf(err, "open %s", path)
	}

	size := int64(-1)
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}
	return NewInput(f, path, size)
}

// BasePath returns the path with any compression extension stripped, for
// format sniffing by extension (.jsonl under .gz, etc.)
func (in *Input) BasePath() string {
	p := in.Path
	for _, ext := range []string{".gz", ".zst", ".zstd"} {
		p = strings.TrimSuffix(p, ext)
	}
	return p
}
