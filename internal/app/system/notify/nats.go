package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSBroker publishes events on a NATS subject and delivers everything
// received on it to the local Hub.
type NATSBroker struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
	hub     *Hub
	log     *zap.Logger
}

// NewNATSBroker connects to url and subscribes to subject.
func NewNATSBroker(url, subject string, hub *Hub, logger *zap.Logger) (*NATSBroker, error) {
	nc, err := nats.Connect(url,
		nats.Name("preshnam"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500*time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(3*time.Second),
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
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}

	b := &NATSBroker{nc: nc, subject: subject, hub: hub, log: logger}
	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		decodeAndDeliver(b.hub, b.log, m.Data)
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats subscribe %s: %w", subject, err)
	}
	// Make sure the server has registered the subscription.
	if err := nc.Flush(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats flush: %w", err)
	}
	b.sub = sub

	logger.Info("nats alert broker connected",
		zap.String("url", nc.ConnectedUrl()),
		zap.String("subject", subject))
	return b, nil
}

func (b *NATSBroker) Publish(_ context.Context, ev Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	return b.nc.Publish(b.subject, payload)
}

func (b *NATSBroker) Ping(ctx context.Context) error {
	if !b.nc.IsConnected() {
		return fmt.Errorf("nats status %s", b.nc.Status())
	}
	return b.nc.FlushWithContext(ctx)
}

func (b *NATSBroker) Name() string { return KindNATS }

// Close drains the subscription and the connection.
func (b *NATSBroker) Close() error {
	if b.sub != nil {
		_ = b.sub.Drain()
	}
	return b.nc.Drain()
}
