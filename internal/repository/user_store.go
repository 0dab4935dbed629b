package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
)

const claimTTL = 10 * time.Second

func userKey(email string) string {
	return "users:" + strings.ToLower(strings.TrimSpace(email))
}

func sessionKey(id string) string { return "sessions:" + id }

// CacheUserStore keeps accounts in a cache.Service. Accounts do not expire on Redis;
// the in-process cache drops them after its default expiration.
type CacheUserStore struct {
	c cache.Service
}

var _ domrepo.UserStore = (*CacheUserStore)(nil)

func NewCacheUserStore(c cache.Service) *CacheUserStore {
	return &CacheUserStore{c: c}
}

// Create claims the email with a short lock so two concurrent registrations cannot both win.
func (s *CacheUserStore) Create(ctx context.Context, u *models.User) error {
	key := userKey(u.Email)
	token, ok, err := s.c.TryLock(ctx, key+":claim", claimTTL)
	if err != nil {
		return fmt.Errorf("claim %s: %w", key, err)
	}
	if !ok {
		return domrepo.ErrAlreadyExists
	}
	defer func() { _ = s.c.Unlock(context.Background(), key+":claim", token) }()

	exists, err := s.c.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return domrepo.ErrAlreadyExists
	}
	return s.c.Set(ctx, key, u, 0)
}

func (s *CacheUserStore) Get(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.Get(ctx, userKey(email), &u); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// CacheSessionStore keeps login sessions with a TTL.
type CacheSessionStore struct {
	c cache.Service
}

var _ domrepo.SessionStore = (*CacheSessionStore)(nil)

func NewCacheSessionStore(c cache.Service) *CacheSessionStore {
	return &CacheSessionStore{c: c}
}

func (s *CacheSessionStore) Put(ctx context.Context, id string, u models.SessionUser, ttl time.Duration) error {
	return s.c.Set(ctx, sessionKey(id), u, ttl)
}

func (s *CacheSessionStore) Get(ctx context.Context, id string) (*models.SessionUser, error) {
	var u models.SessionUser
	if err := s.c.Get(ctx, sessionKey(id), &u); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *CacheSessionStore) Delete(ctx context.Context, id string) error {
	return s.c.Delete(ctx, sessionKey(id))
}
