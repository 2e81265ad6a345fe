// Package timeouts holds the deadlines applied to remote calls.
//
// Handlers derive a bounded context from the request context for every
// database or broker call, so a client disconnect or a slow backend never
// leaves work running:
//
//	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
//	defer cancel()
//
// Guidelines:
//   - Ping: health checks and startup connectivity probes
//   - Short: single-document reads and writes
//   - Medium: list queries and search
//   - Long: transactional writes that touch several collections
//   - Write: one WebSocket frame to a listener
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 20 * time.Second
	DefaultWrite  = 10 * time.Second
)

var (
	mu     sync.RWMutex
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
	write  = DefaultWrite
)

func get(p *time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return *p
}

// Ping bounds health checks.
func Ping() time.Duration { return get(&ping) }

// Short bounds single-document operations.
func Short() time.Duration { return get(&short) }

// Medium bounds list and search queries.
func Medium() time.Duration { return get(&medium) }

// Long bounds multi-collection writes.
func Long() time.Duration { return get(&long) }

// Write bounds a single WebSocket write.
func Write() time.Duration { return get(&write) }

// Config holds overrides. Zero values keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Write  time.Duration
}

// Configure applies non-zero overrides. Call during startup.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&long, cfg.Long)
	set(&write, cfg.Write)
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping, short, medium, long, write = DefaultPing, DefaultShort, DefaultMedium, DefaultLong, DefaultWrite
}

// Current returns the active values, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return Config{Ping: ping, Short: short, Medium: medium, Long: long, Write: write}
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was the reason the operation ended.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "accept friend request")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
