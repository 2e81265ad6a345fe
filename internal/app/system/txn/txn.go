// Package txn runs multi-document writes atomically.
//
// Run executes fn inside a MongoDB transaction. Standalone servers (and
// some DocumentDB deployments) reject transactions; in that case Run logs
// a warning and executes fn directly. Code that must stay consistent on
// those servers registers undo steps with OnRollback; they run in reverse
// order when fn fails outside a transaction.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type undoKey struct{}

type undoLog struct {
	mu    sync.Mutex
	steps []func(context.Context) error
}

// Run executes fn in a transaction when the server supports one.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	if log == nil {
		log = zap.NewNop()
	}

	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return runWithoutTxn(ctx, log, fn)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions not supported; running without transaction", zap.Error(err))
		return runWithoutTxn(ctx, log, fn)
	}
	return err
}

func runWithoutTxn(ctx context.Context, log *zap.Logger, fn func(ctx context.Context) error) error {
	ul := &undoLog{}
	err := fn(context.WithValue(ctx, undoKey{}, ul))
	if err == nil {
		return nil
	}

	ul.mu.Lock()
	steps := ul.steps
	ul.steps = nil
	ul.mu.Unlock()

	// Undo must still run when the caller's context was canceled mid-way.
	undoCtx := context.WithoutCancel(ctx)
	for i := len(steps) - 1; i >= 0; i-- {
		if uerr := steps[i](undoCtx); uerr != nil {
			log.Error("rollback step failed", zap.Int("step", i), zap.Error(uerr))
		}
	}
	return err
}

// OnRollback registers an undo step. It is a no-op inside a real
// transaction, where the server discards the writes itself.
func OnRollback(ctx context.Context, undo func(ctx context.Context) error) {
	ul, ok := ctx.Value(undoKey{}).(*undoLog)
	if !ok {
		return
	}
	ul.mu.Lock()
	ul.steps = append(ul.steps, undo)
	ul.mu.Unlock()
}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	s := strings.ToLower(err.Error())
	has := func(a, b string) bool { return strings.Contains(s, a) && strings.Contains(s, b) }
	return has("transaction", "replica set") ||
		has("session", "not supported") ||
		has("transaction", "session") ||
		has("illegal operation", "transaction")
}
