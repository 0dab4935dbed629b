package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
	"github.com/kimyeonkyu7453/SPP/pkg/logger"
)

var ErrUnknownToken = errors.New("unknown progress token")

const (
	keyPrefix = "progress"
	latestKey = "progress:latest"
)

// Tracker stores per-run training progress under an opaque token. Readings expire after
// ttl; finished runs linger for a shorter time so clients can read the final value.
// The most recently begun run is also exposed as the process-wide "latest" reading.
type Tracker struct {
	cache  cache.Service
	ttl    time.Duration
	linger time.Duration
	now    func() time.Time
	log    *logger.Logger

	mu sync.Mutex
}

type Option func(*Tracker)

func WithLogger(l *logger.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func NewTracker(c cache.Service, ttl, linger time.Duration, opts ...Option) *Tracker {
	t := &Tracker{cache: c, ttl: ttl, linger: linger, now: time.Now, log: logger.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewToken returns a fresh run token.
func (t *Tracker) NewToken() string {
	return uuid.NewString()
}

func key(token string) string {
	return cache.GenerateKey(keyPrefix, token)
}

// Begin resets the run to 0% and marks it as the latest run.
func (t *Tracker) Begin(ctx context.Context, token, symbol string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p := models.Progress{Token: token, Symbol: symbol, UpdatedAt: t.now()}
	if err := t.cache.Set(ctx, key(token), p, t.ttl); err != nil {
		return fmt.Errorf("begin progress %s: %w", token, err)
	}
	if err := t.cache.Set(ctx, latestKey, token, t.ttl); err != nil {
		return fmt.Errorf("set latest progress: %w", err)
	}
	return nil
}

// Update raises the run's percentage. Lower values are ignored so readings never go backwards.
func (t *Tracker) Update(ctx context.Context, token string, percent int) error {
	percent = max(0, min(100, percent))

	t.mu.Lock()
	defer t.mu.Unlock()

	var p models.Progress
	if err := t.cache.Get(ctx, key(token), &p); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return ErrUnknownToken
		}
		return fmt.Errorf("read progress %s: %w", token, err)
	}
	if p.Done || percent <= p.Percent {
		return nil
	}
	p.Percent = percent
	p.UpdatedAt = t.now()
	if err := t.cache.Set(ctx, key(token), p, t.ttl); err != nil {
		return fmt.Errorf("update progress %s: %w", token, err)
	}
	return nil
}

// Finish marks the run done, keeping its last percentage, and shortens its lifetime to linger.
func (t *Tracker) Finish(ctx context.Context, token string, runErr error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var p models.Progress
	if err := t.cache.Get(ctx, key(token), &p); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return ErrUnknownToken
		}
		return fmt.Errorf("read progress %s: %w", token, err)
	}
	p.Done = true
	p.UpdatedAt = t.now()
	if runErr != nil {
		p.Error = runErr.Error()
	}
	if err := t.cache.Set(ctx, key(token), p, t.linger); err != nil {
		return fmt.Errorf("finish progress %s: %w", token, err)
	}
	return nil
}

// Get returns the reading for token.
func (t *Tracker) Get(ctx context.Context, token string) (*models.Progress, error) {
	var p models.Progress
	if err := t.cache.Get(ctx, key(token), &p); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrUnknownToken
		}
		return nil, fmt.Errorf("read progress %s: %w", token, err)
	}
	return &p, nil
}

// Latest returns the reading of the most recently begun run, or 0% when there is none.
// Concurrent runs overwrite each other here; per-token readings are unaffected.
func (t *Tracker) Latest(ctx context.Context) (*models.Progress, error) {
	var token string
	if err := t.cache.Get(ctx, latestKey, &token); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return &models.Progress{}, nil
		}
		return nil, fmt.Errorf("read latest progress: %w", err)
	}
	p, err := t.Get(ctx, token)
	if errors.Is(err, ErrUnknownToken) {
		return &models.Progress{}, nil
	}
	return p, err
}
