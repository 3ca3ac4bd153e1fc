package output

import (
	"bufio"
	"encoding/json"
	"io"

	"chatmill/internal/core/chat"
	perr "chatmill/internal/platform/errors"
)

// WriteJSONL writes one compact JSON object per line
func WriteJSONL(w io.Writer, msgs []chat.Message, opt Options) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i := range msgs {
		if err := enc.Encode(project(&msgs[i], opt)); err != nil {
			return perr.IOErrf(err, "encode jsonl record")
		}
	}
	if err := bw.Flush(); err != nil {
		return perr.IOErrf(err, "flush jsonl")
	}
	return nil
}

// Write dispatches to the writer for the given format
func Write(w io.Writer, f Format, msgs []chat.Message, opt Options) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, msgs, opt)
	case FormatJSON:
		return WriteJSON(w, msgs, opt)
	case FormatJSONL:
		return WriteJSONL(w, msgs, opt)
	default:
		return perr.InvalidArgf("unknown output format %q", string(f))
	}
}
