// Package memory provides in-memory implementations of the storage
// contracts. They back the service tests and mirror the conditional-update
// semantics of the MongoDB adapters, including the guarded remaining
// decrement.
package memory

import (
	"context"
	"sync"
)

// TxRunner serializes units of work under one lock. The in-memory store has
// no rollback; tests that exercise failure paths assert on the returned
// error instead.
type TxRunner struct {
	mu sync.Mutex
}

// NewTxRunner builds an in-memory transaction runner.
func NewTxRunner() *TxRunner {
	return &TxRunner{}
}

// WithinTx runs fn while holding the store-wide lock.
func (t *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}
