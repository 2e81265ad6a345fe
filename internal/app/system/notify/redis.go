package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisOptions configures a RedisBroker.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisBroker publishes events on a Redis pub/sub channel and delivers
// everything received on it to the local Hub.
type RedisBroker struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	channel string
	hub     *Hub
	log     *zap.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewRedisBroker connects, subscribes and starts the receive loop.
func NewRedisBroker(ctx context.Context, opts RedisOptions, hub *Hub, logger *zap.Logger) (*RedisBroker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}

	pubsub := client.Subscribe(ctx, opts.Channel)
	// Wait for the subscription to be confirmed so no event published after
	// this returns is missed.
	if _, err := pubsub.Receive(pingCtx); err != nil {
		_ = pubsub.Close()
		_ = client.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", opts.Channel, err)
	}

	b := &RedisBroker{
		client:  client,
		pubsub:  pubsub,
		channel: opts.Channel,
		hub:     hub,
		log:     logger,
	}
	b.wg.Add(1)
	go b.receive()

	logger.Info("redis alert broker connected",
		zap.String("addr", opts.Addr),
		zap.String("channel", opts.Channel))
	return b, nil
}

func (b *RedisBroker) receive() {
	defer b.wg.Done()
	for msg := range b.pubsub.Channel() {
		decodeAndDeliver(b.hub, b.log, []byte(msg.Payload))
	}
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := encode(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBroker) Name() string { return KindRedis }

// Close unsubscribes, waits for the receive loop and closes the client.
func (b *RedisBroker) Close() error {
	var err error
	b.closeOnce.Do(func() {
		_ = b.pubsub.Close()
		b.wg.Wait()
		err = b.client.Close()
	})
	return err
}
