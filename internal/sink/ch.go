package sink

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"chatmill/internal/core/chat"
	perr "chatmill/internal/platform/errors"
)

const chDefaultTable = "chat_messages"

const chSchema = `
CREATE TABLE IF NOT EXISTS %s (
	run_id   String,
	id       UInt64,
	ts       DateTime('UTC'),
	sender   String,
	content  String,
	reply_to UInt64,
	edited   DateTime('UTC')
) ENGINE = ReplacingMergeTree
ORDER BY (run_id, id)`

type chSink struct {
	conn  driver.Conn
	table string
}

func openCH(ctx context.Context, cfg CHConfig) (*chSink, error) {
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, perr.InvalidArgf("parse clickhouse url: %v", err)
	}
	opts.ClientInfo = clickhouse.ClientInfo{
		Products: []struct{ Name, Version string }{
			{Name: "chatmill", Version: "dev"},
			{Name: "go", Version: runtime.Version()},
		},
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, perr.Unavailablef("open clickhouse: %v", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, perr.Unavailablef("clickhouse ping: %v", err)
	}

	table := cfg.Table
	if table == "" {
		table = chDefaultTable
	}
	if err := conn.Exec(ctx, fmt.Sprintf(chSchema, table)); err != nil {
		_ = conn.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "ensure clickhouse table")
	}
	return &chSink{conn: conn, table: table}, nil
}

func (s *chSink) Write(ctx context.Context, run string, msgs []chat.Message) error {
	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO "+s.table)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeIO, "prepare clickhouse batch")
	}
	for i := range msgs {
		m := &msgs[i]
		// DateTime cannot hold the zero time; absent values store as epoch
		ts, edited := time.Unix(0, 0).UTC(), time.Unix(0, 0).UTC()
		if m.HasTimestamp() {
			ts = m.Timestamp.UTC()
		}
		if !m.Edited.IsZero() {
			edited = m.Edited.UTC()
		}
		if err := batch.Append(run, m.ID, ts, m.Sender, m.Content, m.ReplyTo, edited); err != nil {
			return perr.Wrap(err, perr.ErrorCodeIO, "append clickhouse row")
		}
	}
	if err := batch.Send(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeIO, "send clickhouse batch")
	}
	return nil
}

func (s *chSink) Close() error { return s.conn.Close() }
