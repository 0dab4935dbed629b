package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newCORSServer(origins ...string) *echo.Echo {
	e := echo.New()
	e.Use(CORS(CORSConfig{
		AllowOrigins:  origins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{echo.HeaderContentType},
		ExposeHeaders: []string{"X-Progress-Token"},
	}))
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	e := newCORSServer("https://app.example.com")

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "https://app.example.com" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlExposeHeaders); got != "X-Progress-Token" {
		t.Fatalf("expose headers = %q", got)
	}
}

func TestCORSLeavesOtherOriginsUntagged(t *testing.T) {
	e := newCORSServer("https://app.example.com")

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(echo.HeaderOrigin, "https://evil.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestCORSPreflightWildcard(t *testing.T) {
	e := newCORSServer("*")

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set(echo.HeaderOrigin, "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "*" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowMethods); got != "GET, POST" {
		t.Fatalf("allow methods = %q", got)
	}
}
