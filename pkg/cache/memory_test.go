package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type payload struct {
	Percent int    `json:"percent"`
	Symbol  string `json:"symbol"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	if err := mc.Set(ctx, "p", payload{Percent: 42, Symbol: "005930.KS"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var got payload
	if err := mc.Get(ctx, "p", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Percent != 42 || got.Symbol != "005930.KS" {
		t.Fatalf("unexpected value %+v", got)
	}

	raw := []byte{1, 2, 3}
	_ = mc.Set(ctx, "raw", raw, 0)
	raw[0] = 9
	var back []byte
	if err := mc.Get(ctx, "raw", &back); err != nil || back[0] != 1 || len(back) != 3 {
		t.Fatalf("bytes must be copied, got %v (%v)", back, err)
	}

	if err := mc.Get(ctx, "absent", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryClock(clock.Now))
	defer mc.Close()

	_ = mc.Set(ctx, "k", "v", time.Minute)
	clock.Advance(30 * time.Second)
	if ok, _ := mc.Exists(ctx, "k"); !ok {
		t.Fatalf("expected key alive")
	}
	if ok, _ := mc.Expire(ctx, "k", 10*time.Second); !ok {
		t.Fatalf("expected expire to succeed")
	}
	clock.Advance(11 * time.Second)
	var s string
	if err := mc.Get(ctx, "k", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired key, got %v (%q)", err, s)
	}
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryClock(clock.Now))
	defer mc.Close()

	first, ok, _ := mc.TryLock(ctx, "lock", time.Minute)
	if !ok || first == "" {
		t.Fatalf("first lock should succeed with a token")
	}
	if _, ok, _ := mc.TryLock(ctx, "lock", time.Minute); ok {
		t.Fatalf("second lock should fail")
	}
	clock.Advance(2 * time.Minute)
	second, ok, _ := mc.TryLock(ctx, "lock", time.Minute)
	if !ok {
		t.Fatalf("lock should be free after ttl")
	}
	if err := mc.Unlock(ctx, "lock", first); !errors.Is(err, ErrNotLocked) {
		t.Fatalf("stale owner unlock: expected ErrNotLocked, got %v", err)
	}
	if _, ok, _ := mc.TryLock(ctx, "lock", time.Minute); ok {
		t.Fatalf("stale owner must not release the current lock")
	}
	if err := mc.Unlock(ctx, "lock", second); err != nil {
		t.Fatalf("owner unlock: %v", err)
	}
	if _, ok, _ := mc.TryLock(ctx, "lock", time.Minute); !ok {
		t.Fatalf("lock should be free after unlock")
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryClock(clock.Now))
	defer mc.Close()

	_ = mc.Set(ctx, "a", "1", 0)
	clock.Advance(time.Second)
	_ = mc.Set(ctx, "b", "2", 0)
	clock.Advance(time.Second)
	var s string
	_ = mc.Get(ctx, "a", &s)
	clock.Advance(time.Second)
	_ = mc.Set(ctx, "c", "3", 0)

	if ok, _ := mc.Exists(ctx, "b"); ok {
		t.Fatalf("expected b evicted")
	}
	if ok, _ := mc.Exists(ctx, "a", "c"); !ok {
		t.Fatalf("expected a and c kept")
	}
}

func TestGenerateKey(t *testing.T) {
	if got := GenerateKeyWithParams("progress", "run", 7); got != "progress:run:7" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := GenerateKey("lock", "005930.KS"); got != "lock:005930.KS" {
		t.Fatalf("unexpected key %q", got)
	}
}
