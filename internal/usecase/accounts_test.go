package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	"github.com/kimyeonkyu7453/SPP/internal/repository"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
)

func newAccounts(t *testing.T) *Accounts {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })
	return NewAccounts(
		repository.NewCacheUserStore(c),
		repository.NewCacheSessionStore(c),
		AccountsConfig{BcryptCost: bcrypt.MinCost, SessionTTL: time.Hour},
		nil,
	)
}

func registerKim(t *testing.T, a *Accounts) {
	t.Helper()
	_, err := a.Register(context.Background(), &models.RegisterRequest{
		FullName: "Kim Yeon", Email: "Kim@Example.com ", Nickname: "yeon", Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
}

func TestAccountsRegisterLoginMeLogout(t *testing.T) {
	a := newAccounts(t)
	ctx := context.Background()
	registerKim(t, a)

	id, u, err := a.Login(ctx, &models.LoginRequest{Email: "kim@example.com", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if id == "" || u.Email != "kim@example.com" || u.Nickname != "yeon" {
		t.Fatalf("unexpected session %q %+v", id, u)
	}

	me, err := a.Me(ctx, id)
	if err != nil || me.FullName != "Kim Yeon" {
		t.Fatalf("me: %+v %v", me, err)
	}

	if err := a.Logout(ctx, id); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := a.Me(ctx, id); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated after logout, got %v", err)
	}
}

func TestAccountsDuplicateEmail(t *testing.T) {
	a := newAccounts(t)
	registerKim(t, a)
	_, err := a.Register(context.Background(), &models.RegisterRequest{
		FullName: "Other", Email: "KIM@example.com", Nickname: "o", Password: "another-pass",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAccountsRejectBadCredentials(t *testing.T) {
	a := newAccounts(t)
	ctx := context.Background()
	registerKim(t, a)

	if _, _, err := a.Login(ctx, &models.LoginRequest{Email: "kim@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := a.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "s3cret-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := a.Me(ctx, ""); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("empty session: expected ErrNotAuthenticated, got %v", err)
	}
}

func TestAccountsStoreOnlyHash(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	users := repository.NewCacheUserStore(c)
	a := NewAccounts(users, repository.NewCacheSessionStore(c), AccountsConfig{BcryptCost: bcrypt.MinCost}, nil)
	registerKim(t, a)

	u, err := users.Get(context.Background(), "kim@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(u.PasswordHash) == "s3cret-pass" {
		t.Fatalf("password stored in clear")
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("s3cret-pass")) != nil {
		t.Fatalf("stored hash does not match password")
	}
}
