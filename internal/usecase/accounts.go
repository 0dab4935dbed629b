package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/pkg/logger"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// AccountsConfig controls password hashing and session lifetime.
type AccountsConfig struct {
	BcryptCost int
	SessionTTL time.Duration
}

// Accounts registers users and manages their login sessions.
type Accounts struct {
	users    domrepo.UserStore
	sessions domrepo.SessionStore
	cfg      AccountsConfig
	l        *logger.Logger
	now      func() time.Time
}

func NewAccounts(users domrepo.UserStore, sessions domrepo.SessionStore, cfg AccountsConfig, l *logger.Logger) *Accounts {
	if l == nil {
		l = logger.NewNop()
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	return &Accounts{users: users, sessions: sessions, cfg: cfg, l: l, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Accounts) Register(ctx context.Context, req *models.RegisterRequest) (*models.SessionUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Email:        normalizeEmail(req.Email),
		FullName:     strings.TrimSpace(req.FullName),
		Nickname:     strings.TrimSpace(req.Nickname),
		PasswordHash: hash,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.users.Create(ctx, u); err != nil {
		if errors.Is(err, domrepo.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", u.Email, ErrEmailTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	a.l.Info("user registered", logger.String("email", u.Email))
	su := u.Session()
	return &su, nil
}

// Login checks the password and opens a session. Unknown emails and wrong passwords look the same.
func (a *Accounts) Login(ctx context.Context, req *models.LoginRequest) (string, *models.SessionUser, error) {
	u, err := a.users.Get(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("compare password: %w", err)
	}

	id := uuid.NewString()
	su := u.Session()
	if err := a.sessions.Put(ctx, id, su, a.cfg.SessionTTL); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}
	return id, &su, nil
}

func (a *Accounts) Me(ctx context.Context, sessionID string) (*models.SessionUser, error) {
	if sessionID == "" {
		return nil, ErrNotAuthenticated
	}
	su, err := a.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domrepo.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return su, nil
}

// Logout ends the session. Ending an unknown session is not an error.
func (a *Accounts) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return a.sessions.Delete(ctx, sessionID)
}
