package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/pingup/backend/internal/domain"
)

const DefaultSubject = "relationship.connection-request"

// NatsPublisher puts domain events on a NATS subject for the notification
// service to consume.
type NatsPublisher struct {
	nc      *nats.Conn
	subject string
	logger  *zap.Logger
}

func NewNatsPublisher(nc *nats.Conn, subject string, logger *zap.Logger) *NatsPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NatsPublisher{
		nc:      nc,
		subject: subject,
		logger:  logger,
	}
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, subject string, logger *zap.Logger) (*NatsPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("pingup-relationships"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return NewNatsPublisher(nc, subject, logger), nil
}

func (p *NatsPublisher) PublishConnectionRequest(ctx context.Context, event *domain.ConnectionRequestEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("Event-Type", event.Type)
	msg.Header.Set(nats.MsgIdHdr, event.RequestID.String())

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}

	p.logger.Debug("published event",
		zap.String("subject", p.subject),
		zap.String("request_id", event.RequestID.String()),
	)
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NatsPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("nats drain failed", zap.Error(err))
		p.nc.Close()
	}
}
