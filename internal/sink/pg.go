package sink

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatmill/internal/core/chat"
	perr "chatmill/internal/platform/errors"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
	run_id   text        NOT NULL,
	id       numeric     NOT NULL,
	ts       timestamptz,
	sender   text        NOT NULL,
	content  text        NOT NULL,
	reply_to numeric,
	edited   timestamptz,
	PRIMARY KEY (run_id, id)
)`

const pgInsert = `
INSERT INTO chat_messages (run_id, id, ts, sender, content, reply_to, edited)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id, id) DO NOTHING`

type pgSink struct {
	pool *pgxpool.Pool
}

var newPool = pgxpool.NewWithConfig // seam

// openPG opens the pool, pings with retry and backoff until the database
// is reachable, then ensures the target table exists
func openPG(ctx context.Context, cfg PGConfig) (*pgSink, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, perr.InvalidArgf("parse postgres url: %v", err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, perr.Unavailablef("open postgres pool: %v", err)
	}

	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = 6
	}
	pingTimeout := cfg.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}

	var lastErr error
	backoff := 150 * time.Millisecond
	for i := 0; i < retries; i++ {
		toCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		lastErr = pool.Ping(toCtx)
		cancel()
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			pool.Close()
			return nil, ctx.Err()
		}
		time.Sleep(backoff)
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
	if lastErr != nil {
		pool.Close()
		return nil, perr.Unavailablef("postgres ping failed after %d attempts: %v", retries, lastErr)
	}

	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "ensure chat_messages table")
	}
	return &pgSink{pool: pool}, nil
}

func (s *pgSink) Write(ctx context.Context, run string, msgs []chat.Message) error {
	b := &pgx.Batch{}
	for i := range msgs {
		m := &msgs[i]
		var ts, edited any
		if m.HasTimestamp() {
			ts = m.Timestamp.UTC()
		}
		if !m.Edited.IsZero() {
			edited = m.Edited.UTC()
		}
		var replyTo any
		if m.ReplyTo != 0 {
			replyTo = strconv.FormatUint(m.ReplyTo, 10)
		}
		// ids exceed the int64 range (synthetic ids set the high bit),
		// so they travel as decimal strings into numeric columns
		b.Queue(pgInsert, run, strconv.FormatUint(m.ID, 10), ts, m.Sender, m.Content, replyTo, edited)
	}
	if err := s.pool.SendBatch(ctx, b).Close(); err != nil {
		return perr.Wrap(err, perr.ErrorCodeIO, "postgres batch insert")
	}
	return nil
}

func (s *pgSink) Close() error {
	s.pool.Close()
	return nil
}
