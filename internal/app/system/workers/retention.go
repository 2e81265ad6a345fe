// internal/app/system/workers/retention.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pruner deletes records older than a cutoff and reports how many it removed.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention is a background worker that removes records older than the
// retention window from one collection.
type Retention struct {
	name      string
	store     Pruner
	log       *zap.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewRetention creates a new retention worker.
//
// Parameters:
//   - name: what is pruned, for logs (e.g., "login records")
//   - store: the store to prune
//   - logger: zap logger for logging
//   - interval: how often to prune (e.g., 1 hour)
//   - retention: how long a record is kept (e.g., 90 days)
func NewRetention(name string, store Pruner, logger *zap.Logger, interval, retention time.Duration) *Retention {
	return &Retention{
		name:      name,
		store:     store,
		log:       logger,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start runs one prune immediately, then on every interval.
func (w *Retention) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("retention worker started",
		zap.String("name", w.name),
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *Retention) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("retention worker stopped", zap.String("name", w.name))
}

func (w *Retention) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Prune()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Prune()
		}
	}
}

// Prune deletes records created before now minus the retention window.
func (w *Retention) Prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := w.now().UTC().Add(-w.retention)
	count, err := w.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		w.log.Error("prune failed", zap.String("name", w.name), zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("pruned old records",
			zap.String("name", w.name), zap.Int64("count", count), zap.Time("cutoff", cutoff))
	}
}
