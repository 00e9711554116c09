package offer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NbdyKnows/backend-sivi/internal/lock"
)

const (
	snapshotCacheKey = "sivi:offers:snapshot"
	snapshotLockKey  = "sivi:offers:refresh"
	snapshotLockTTL  = 10 * time.Second
)

// CachedSource decorates a Source with a short-lived Redis cache so concurrent
// pricing requests share one snapshot fetch instead of hammering the
// collaborator. With a Locker configured, concurrent misses collapse into a
// single upstream fetch.
type CachedSource struct {
	Next   Source
	Client *redis.Client
	TTL    time.Duration
	Locker *lock.Locker
}

// Snapshot returns the cached snapshot when fresh, falling back to the wrapped
// source. Cache and lock failures degrade to a direct fetch; they never fail a
// pricing run.
func (c CachedSource) Snapshot(ctx context.Context) ([]Offer, error) {
	if c.Client == nil || c.TTL <= 0 {
		return c.Next.Snapshot(ctx)
	}
	if cached, ok := c.lookup(ctx); ok {
		return cached, nil
	}
	if c.Locker == nil {
		return c.refresh(ctx)
	}

	var (
		offers   []Offer
		fetchErr error
	)
	lockErr := c.Locker.WithLock(ctx, snapshotLockKey, snapshotLockTTL, func(ctx context.Context) error {
		// Another caller may have populated the cache while we waited.
		if cached, ok := c.lookup(ctx); ok {
			offers = cached
			return nil
		}
		offers, fetchErr = c.refresh(ctx)
		return nil
	})
	if lockErr != nil {
		return c.refresh(ctx)
	}
	return offers, fetchErr
}

func (c CachedSource) lookup(ctx context.Context) ([]Offer, bool) {
	data, err := c.Client.Get(ctx, snapshotCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var cached []Offer
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}
	return cached, true
}

func (c CachedSource) refresh(ctx context.Context) ([]Offer, error) {
	offers, err := c.Next.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(offers); err == nil {
		_ = c.Client.Set(ctx, snapshotCacheKey, data, c.TTL).Err()
	}
	return offers, nil
}
