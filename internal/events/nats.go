package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// NATSConfig holds connection settings.
type NATSConfig struct {
	URL           string
	Name          string
	SubjectPrefix string
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// NATS publishes events as JSON core NATS messages. Each message carries a
// Nats-Msg-Id header so JetStream streams bound to the subjects deduplicate
// redeliveries.
type NATS struct {
	nc     *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATS connects to the server at cfg.URL.
func NewNATS(cfg NATSConfig, logger *slog.Logger) (*NATS, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "mimirswell-server"
	}
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrlRedacted())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	return &NATS{nc: nc, prefix: cfg.SubjectPrefix, logger: logger}, nil
}

// Subject returns the subject an event type is published on.
func Subject(prefix, eventType string) string {
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// newMsg builds the wire message for evt.
func newMsg(prefix string, evt Event) (*nats.Msg, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	msg := nats.NewMsg(Subject(prefix, evt.Type))
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, uuid.NewString())
	msg.Header.Set("Content-Type", "application/json")
	return msg, nil
}

// Publish sends evt. The context is checked before sending since core
// publishes do not block on the server.
func (p *NATS) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := newMsg(p.prefix, evt)
	if err != nil {
		return err
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATS) Close() error {
	return p.nc.Drain()
}
