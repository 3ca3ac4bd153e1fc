package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"chatmill/internal/core/chat"
	perr "chatmill/internal/platform/errors"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// WriteCSV writes messages as semicolon-delimited CSV with a header row.
// Column order follows the field order in Options; absent values are
// written as empty cells
func WriteCSV(w io.Writer, msgs []chat.Message, opt Options) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader(opt)); err != nil {
		return perr.IOErrf(err, "write csv header")
	}
	for i := range msgs {
		if err := cw.Write(csvRecord(&msgs[i], opt)); err != nil {
			return perr.IOErrf(err, "write csv record")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return perr.IOErrf(err, "flush csv")
	}
	return nil
}

func csvHeader(opt Options) []string {
	h := make([]string, 0, 6)
	if opt.IncludeIDs {
		h = append(h, "ID")
	}
	if opt.IncludeTimestamps {
		h = append(h, "Timestamp")
	}
	h = append(h, "Sender", "Content")
	if opt.IncludeReplies {
		h = append(h, "ReplyTo")
	}
	if opt.IncludeEdited {
		h = append(h, "Edited")
	}
	return h
}

func csvRecord(m *chat.Message, opt Options) []string {
	rec := make([]string, 0, 6)
	if opt.IncludeIDs {
		var id string
		if m.HasID() {
			id = strconv.FormatUint(m.ID, 10)
		}
		rec = append(rec, id)
	}
	if opt.IncludeTimestamps {
		var ts string
		if m.HasTimestamp() {
			ts = m.Timestamp.UTC().Format(csvTimeLayout)
		}
		rec = append(rec, ts)
	}
	rec = append(rec, m.Sender, m.Content)
	if opt.IncludeReplies {
		var rt string
		if m.ReplyTo != 0 {
			rt = strconv.FormatUint(m.ReplyTo, 10)
		}
		rec = append(rec, rt)
	}
	if opt.IncludeEdited {
		var ed string
		if !m.Edited.IsZero() {
			ed = m.Edited.UTC().Format(csvTimeLayout)
		}
		rec = append(rec, ed)
	}
	return rec
}
