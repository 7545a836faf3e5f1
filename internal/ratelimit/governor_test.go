package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memoryCache is an in-process Cache for tests.
type memoryCache struct {
	mu       sync.Mutex
	values   map[string]string
	counters map[string]int64
	fail     bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{
		values:   map[string]string{},
		counters: map[string]int64{},
	}
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return "", false, errors.New("cache down")
	}
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memoryCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("cache down")
	}
	m.values[key] = value
	return nil
}

func (m *memoryCache) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return 0, errors.New("cache down")
	}
	m.counters[key]++
	return m.counters[key], nil
}

func TestAllow_WithinQuota(t *testing.T) {
	g := NewGovernor(newMemoryCache(), map[string]Quota{
		"track": {Limit: 3, Window: 5 * time.Minute},
	})
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	g.nowFunc = func() time.Time { return fixed }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := g.Allow(ctx, "track"); err != nil {
			t.Fatalf("call %d: unexpected error %v", i+1, err)
		}
	}
	if err := g.Allow(ctx, "track"); !errors.Is(err, ErrThrottled) {
		t.Fatalf("4th call: err = %v, want ErrThrottled", err)
	}
}

func TestAllow_WindowRollover(t *testing.T) {
	g := NewGovernor(newMemoryCache(), map[string]Quota{
		"waybill": {Limit: 1, Window: 5 * time.Minute},
	})
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	g.nowFunc = func() time.Time { return now }

	ctx := context.Background()
	if err := g.Allow(ctx, "waybill"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := g.Allow(ctx, "waybill"); !errors.Is(err, ErrThrottled) {
		t.Fatalf("second call in window: err = %v, want ErrThrottled", err)
	}

	now = now.Add(5 * time.Minute)
	if err := g.Allow(ctx, "waybill"); err != nil {
		t.Fatalf("call in next window: %v", err)
	}
}

func TestAllow_UnknownEndpoint(t *testing.T) {
	g := NewGovernor(newMemoryCache(), map[string]Quota{})
	if err := g.Allow(context.Background(), "anything"); err != nil {
		t.Fatalf("unquoted endpoint should always pass: %v", err)
	}
}

func TestAllow_FailsOpenOnCacheError(t *testing.T) {
	cache := newMemoryCache()
	cache.fail = true
	g := NewGovernor(cache, map[string]Quota{
		"track": {Limit: 1, Window: time.Minute},
	})
	for i := 0; i < 5; i++ {
		if err := g.Allow(context.Background(), "track"); err != nil {
			t.Fatalf("broken cache must not block calls: %v", err)
		}
	}
}

func TestCachedOrFetch(t *testing.T) {
	g := NewGovernor(newMemoryCache(), nil)
	ctx := context.Background()

	fetches := 0
	fetch := func(context.Context) (string, error) {
		fetches++
		return "110001:ok", nil
	}

	v, err := g.CachedOrFetch(ctx, "serviceability:110001", time.Hour, fetch)
	if err != nil || v != "110001:ok" {
		t.Fatalf("first fetch: v=%q err=%v", v, err)
	}
	v, err = g.CachedOrFetch(ctx, "serviceability:110001", time.Hour, fetch)
	if err != nil || v != "110001:ok" {
		t.Fatalf("cached read: v=%q err=%v", v, err)
	}
	if fetches != 1 {
		t.Fatalf("fetches = %d, want 1", fetches)
	}
}

func TestCachedOrFetch_FetchError(t *testing.T) {
	g := NewGovernor(newMemoryCache(), nil)
	wantErr := errors.New("carrier down")

	_, err := g.CachedOrFetch(context.Background(), "k", time.Hour, func(context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want fetch error", err)
	}
}
