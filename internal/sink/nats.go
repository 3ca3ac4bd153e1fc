package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"chatmill/internal/core/chat"
	perr "chatmill/internal/platform/errors"
	"chatmill/internal/platform/logger"
)

const natsDefaultSubject = "chatmill.messages"

// natsEvent is the published envelope, one per message
type natsEvent struct {
	Run     string       `json:"run"`
	Message chat.Message `json:"message"`
}

type natsSink struct {
	conn    *nats.Conn
	subject string
}

func openNATS(cfg NATSConfig) (*natsSink, error) {
	log := logger.Named("sink.nats")
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, perr.Unavailablef("nats connect: %v", err)
	}
	subject := cfg.Subject
	if subject == "" {
		subject = natsDefaultSubject
	}
	return &natsSink{conn: conn, subject: subject}, nil
}

func (s *natsSink) Write(ctx context.Context, run string, msgs []chat.Message) error {
	for i := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := json.Marshal(natsEvent{Run: run, Message: msgs[i]})
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnknown, "marshal nats event")
		}
		if err := s.conn.Publish(s.subject, payload); err != nil {
			return perr.Wrap(err, perr.ErrorCodeIO, "publish nats event")
		}
	}
	return nil
}

func (s *natsSink) Close() error {
	// flush what we can before dropping the connection
	_ = s.conn.Flush()
	s.conn.Close()
	return nil
}
