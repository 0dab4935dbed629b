package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
)

func TestCacheUserStore(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	s := NewCacheUserStore(c)
	ctx := context.Background()

	if _, err := s.Get(ctx, "a@example.com"); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	u := &models.User{Email: "a@example.com", FullName: "A", PasswordHash: []byte("$2a$04$hash")}
	if err := s.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, &models.User{Email: "A@example.com"}); !errors.Is(err, domrepo.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	got, err := s.Get(ctx, " A@Example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName != "A" || string(got.PasswordHash) != "$2a$04$hash" {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestCacheSessionStore(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	s := NewCacheSessionStore(c)
	ctx := context.Background()

	if err := s.Put(ctx, "sid", models.SessionUser{Email: "a@example.com"}, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.Get(ctx, "sid")
	if err != nil || got.Email != "a@example.com" {
		t.Fatalf("get: %+v %v", got, err)
	}
	if err := s.Delete(ctx, "sid"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "sid"); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
