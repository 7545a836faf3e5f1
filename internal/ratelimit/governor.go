package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrThrottled is returned when a call would exceed the carrier's published
// quota for an endpoint. Exceeding a quota degrades the whole integration for
// every shipment, so the governor is a hard gate, not advisory.
var ErrThrottled = errors.New("carrier endpoint quota exhausted")

// Quota is a fixed-window call budget.
type Quota struct {
	Limit  int
	Window time.Duration
}

// DefaultQuotas are the carrier's published per-endpoint limits.
var DefaultQuotas = map[string]Quota{
	"track":          {Limit: 750, Window: 5 * time.Minute},
	"waybill":        {Limit: 5, Window: 5 * time.Minute},
	"serviceability": {Limit: 40, Window: 5 * time.Minute},
	"manifest":       {Limit: 500, Window: 5 * time.Minute},
}

// Governor tracks per-endpoint call budgets and fronts short-term caches so
// callers stay under carrier-imposed quotas.
type Governor struct {
	cache   Cache
	quotas  map[string]Quota
	nowFunc func() time.Time
}

// NewGovernor builds a governor over the given cache. Nil quotas uses
// DefaultQuotas.
func NewGovernor(cache Cache, quotas map[string]Quota) *Governor {
	if quotas == nil {
		quotas = DefaultQuotas
	}
	return &Governor{
		cache:   cache,
		quotas:  quotas,
		nowFunc: time.Now,
	}
}

// Allow records a call against the endpoint's window and reports whether it
// fits the budget. Endpoints without a configured quota are always allowed.
func (g *Governor) Allow(ctx context.Context, endpoint string) error {
	q, ok := g.quotas[endpoint]
	if !ok || q.Limit <= 0 {
		return nil
	}

	window := g.nowFunc().Unix() / int64(q.Window.Seconds())
	key := fmt.Sprintf("quota:%s:%d", endpoint, window)

	n, err := g.cache.Incr(ctx, key, q.Window)
	if err != nil {
		// A broken cache should not take the integration down; let the call
		// through and rely on the carrier's own 429s.
		return nil
	}
	if n > int64(q.Limit) {
		return fmt.Errorf("%w: %s (%d/%d per %s)", ErrThrottled, endpoint, n, q.Limit, q.Window)
	}
	return nil
}

// CachedOrFetch returns the cached value for key, or runs fetch and caches
// its result for ttl. Used for pincode serviceability (hours of TTL against a
// strict per-5-minute quota) and same-day pickup-id reuse.
func (g *Governor) CachedOrFetch(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) (string, error)) (string, error) {
	if v, ok, err := g.cache.Get(ctx, key); err == nil && ok {
		return v, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		return "", err
	}

	if err := g.cache.Set(ctx, key, v, ttl); err != nil {
		// Cache write failure is not the caller's problem.
		return v, nil
	}
	return v, nil
}
