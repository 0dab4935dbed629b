package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/services/forecast"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
)

// CacheCheckpoints keeps snapshots in a cache.Service (redis in production).
// Entries expire after ttl so an aborted run cannot leak its slot forever.
type CacheCheckpoints struct {
	c   cache.Service
	ttl time.Duration
}

var _ forecast.CheckpointStore = (*CacheCheckpoints)(nil)

func NewCacheCheckpoints(c cache.Service, ttl time.Duration) *CacheCheckpoints {
	return &CacheCheckpoints{c: c, ttl: ttl}
}

func checkpointKey(slot string) string { return cache.GenerateKey("checkpoint", slot) }

func (s *CacheCheckpoints) Save(ctx context.Context, slot string, data []byte) error {
	return s.c.Set(ctx, checkpointKey(slot), data, s.ttl)
}

func (s *CacheCheckpoints) Load(ctx context.Context, slot string) ([]byte, error) {
	var out []byte
	if err := s.c.Get(ctx, checkpointKey(slot), &out); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, forecast.ErrCheckpointNotFound
		}
		return nil, err
	}
	return out, nil
}

func (s *CacheCheckpoints) Delete(ctx context.Context, slot string) error {
	return s.c.Delete(ctx, checkpointKey(slot))
}
