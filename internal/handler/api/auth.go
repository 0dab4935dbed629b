package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	xhttp "github.com/kimyeonkyu7453/SPP/pkg/http"
	xlogger "github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// AccountService registers users and manages sessions.
type AccountService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.SessionUser, error)
	Login(ctx context.Context, req *models.LoginRequest) (string, *models.SessionUser, error)
	Me(ctx context.Context, sessionID string) (*models.SessionUser, error)
	Logout(ctx context.Context, sessionID string) error
}

// SessionCookie describes the cookie that carries the session id.
type SessionCookie struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

type AuthHandler struct {
	logger   *xlogger.Logger
	accounts AccountService
	cookie   SessionCookie
}

var _ xhttp.Handler = (*AuthHandler)(nil)

func NewAuthHandler(logger *xlogger.Logger, accounts AccountService, cookie SessionCookie) *AuthHandler {
	if logger == nil {
		logger = xlogger.NewNop()
	}
	if cookie.Name == "" {
		cookie.Name = "spp_session"
	}
	return &AuthHandler{logger: logger, accounts: accounts, cookie: cookie}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.GET("/me", h.Me)
	g.POST("/logout", h.Logout)
}

func (h *AuthHandler) Register(c echo.Context) error {
	req := &models.RegisterRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	u, err := h.accounts.Register(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, h.logger, "register", err)
	}
	return xhttp.DataResponse(c, http.StatusCreated, u)
}

func (h *AuthHandler) Login(c echo.Context) error {
	req := &models.LoginRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	id, u, err := h.accounts.Login(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, h.logger, "login", err)
	}
	c.SetCookie(h.sessionCookie(id, int(h.cookie.TTL.Seconds())))
	return xhttp.SuccessResponse(c, u)
}

func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.accounts.Me(c.Request().Context(), h.sessionID(c))
	if err != nil {
		return errorResponse(c, h.logger, "me", err)
	}
	return xhttp.SuccessResponse(c, u)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.accounts.Logout(c.Request().Context(), h.sessionID(c)); err != nil {
		return errorResponse(c, h.logger, "logout", err)
	}
	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) sessionID(c echo.Context) string {
	ck, err := c.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

// sessionCookie builds the session cookie; a negative maxAge clears it.
func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
