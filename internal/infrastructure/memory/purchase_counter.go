package memory

import (
	"context"
	"sync"
)

// PurchaseCounter tracks how many purchases the proxy has brokered. It is not
// tied to any ledger instance or book.
type PurchaseCounter struct {
	mu    sync.RWMutex
	total uint64
}

func NewPurchaseCounter() *PurchaseCounter {
	return &PurchaseCounter{}
}

func (c *PurchaseCounter) Increment(ctx context.Context) (uint64, error) {
	_ = ctx

	c.mu.Lock()
	defer c.mu.Unlock()

	c.total++
	return c.total, nil
}

func (c *PurchaseCounter) Total(ctx context.Context) (uint64, error) {
	_ = ctx

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.total, nil
}
