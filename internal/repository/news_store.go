package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
)

const newsSnapshotKey = "news:results"

// CacheNewsStore keeps the latest monitoring snapshot in a cache.Service.
type CacheNewsStore struct {
	c   cache.Service
	ttl time.Duration
}

var _ domrepo.NewsStore = (*CacheNewsStore)(nil)

func NewCacheNewsStore(c cache.Service, ttl time.Duration) *CacheNewsStore {
	return &CacheNewsStore{c: c, ttl: ttl}
}

func (s *CacheNewsStore) Replace(ctx context.Context, snap *models.NewsSnapshot) error {
	return s.c.Set(ctx, newsSnapshotKey, snap, s.ttl)
}

// Latest returns ErrNotFound until the first run completes.
func (s *CacheNewsStore) Latest(ctx context.Context) (*models.NewsSnapshot, error) {
	var snap models.NewsSnapshot
	if err := s.c.Get(ctx, newsSnapshotKey, &snap); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrNotFound
		}
		return nil, err
	}
	return &snap, nil
}
