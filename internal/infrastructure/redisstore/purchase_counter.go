package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const totalPurchasesKey = "proxy:total_purchases"

// PurchaseCounter keeps the proxy's brokered-purchase count in Redis, so the
// counter survives restarts.
type PurchaseCounter struct {
	client *redis.Client
}

func NewPurchaseCounter(client *redis.Client) *PurchaseCounter {
	return &PurchaseCounter{client: client}
}

func (c *PurchaseCounter) Increment(ctx context.Context) (uint64, error) {
	total, err := c.client.Incr(ctx, totalPurchasesKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redisstore: increment purchases: %w", err)
	}
	return uint64(total), nil
}

func (c *PurchaseCounter) Total(ctx context.Context) (uint64, error) {
	raw, err := c.client.Get(ctx, totalPurchasesKey).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redisstore: total purchases: %w", err)
	}
	total, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redisstore: parse total: %w", err)
	}
	return total, nil
}
