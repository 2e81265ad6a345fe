package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Broker kinds accepted by New.
const (
	KindLocal = "local"
	KindRedis = "redis"
	KindNATS  = "nats"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("notify: broker closed")

// Broker publishes events to every process's Hub.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Ping(ctx context.Context) error
	Name() string
	Close() error
}

// Config selects and configures a Broker.
type Config struct {
	Kind          string
	Subject       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NATSURL       string
}

// Validate checks the settings for the selected kind.
func (c Config) Validate() error {
	switch strings.ToLower(c.Kind) {
	case "", KindLocal:
		return nil
	case KindRedis:
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required when broker=redis")
		}
	case KindNATS:
		if c.NATSURL == "" {
			return errors.New("nats_url is required when broker=nats")
		}
	default:
		return fmt.Errorf("unknown broker %q (want local|redis|nats)", c.Kind)
	}
	if c.Subject == "" {
		return errors.New("notify_subject is required for a remote broker")
	}
	return nil
}

// New builds the broker selected by cfg, delivering into hub.
func New(ctx context.Context, cfg Config, hub *Hub, logger *zap.Logger) (Broker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Kind) {
	case KindRedis:
		return NewRedisBroker(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Channel:  cfg.Subject,
		}, hub, logger)
	case KindNATS:
		return NewNATSBroker(cfg.NATSURL, cfg.Subject, hub, logger)
	default:
		return NewLocalBroker(hub), nil
	}
}

// LocalBroker delivers straight into an in-process Hub. Suitable for a
// single instance.
type LocalBroker struct {
	hub *Hub
}

// NewLocalBroker wraps hub.
func NewLocalBroker(hub *Hub) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, ev Event) error {
	b.hub.Deliver(ev)
	return nil
}

func (b *LocalBroker) Ping(context.Context) error { return nil }

func (b *LocalBroker) Name() string { return KindLocal }

func (b *LocalBroker) Close() error { return nil }

func encode(ev Event) ([]byte, error) {
	return json.Marshal(ev)
}

// decodeAndDeliver is shared by the remote brokers' receive loops.
func decodeAndDeliver(hub *Hub, log *zap.Logger, payload []byte) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Warn("discarding malformed alert event", zap.Error(err))
		return
	}
	hub.Deliver(ev)
}
