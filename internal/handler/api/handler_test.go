package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/internal/services/forecast"
	"github.com/kimyeonkyu7453/SPP/internal/services/progress"
	"github.com/kimyeonkyu7453/SPP/internal/usecase"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
)

type fakeForecasts struct {
	res    *models.ForecastResult
	err    error
	params []usecase.ForecastParams
	hist   []models.ForecastRecord
}

func (f *fakeForecasts) Run(_ context.Context, p usecase.ForecastParams) (*models.ForecastResult, error) {
	f.params = append(f.params, p)
	if p.Symbol == "" {
		return nil, usecase.ErrMissingSymbol
	}
	return f.res, f.err
}

func (f *fakeForecasts) History(_ context.Context, symbol string, limit int) ([]models.ForecastRecord, error) {
	if len(f.hist) > limit {
		return f.hist[:limit], nil
	}
	return f.hist, nil
}

type fakeJobs struct {
	token string
	err   error
}

func (f *fakeJobs) Enqueue(context.Context, string) (string, error) { return f.token, f.err }

type denyAll struct{}

func (denyAll) Allow(string) bool               { return false }
func (denyAll) RetryAfter(string) time.Duration { return 1500 * time.Millisecond }

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type errorItem struct {
	Code string `json:"code"`
}

func serve(t *testing.T, h interface{ RegisterRoutes(*echo.Echo) }, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	var items []errorItem
	if err := json.Unmarshal(env.Data, &items); err != nil || len(items) == 0 {
		return ""
	}
	return items[0].Code
}

func TestPredictErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unknown symbol", fmt.Errorf("XYZ: %w", domrepo.ErrSymbolNotFound), http.StatusNotFound, "ERR_UNKNOWN_SYMBOL"},
		{"short history", forecast.ErrInsufficientHistory, http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_HISTORY"},
		{"constant", fmt.Errorf("scale: %w", forecast.ErrConstantSeries), http.StatusUnprocessableEntity, "ERR_CONSTANT_SERIES"},
		{"no validation", forecast.ErrEmptyValidationSet, http.StatusUnprocessableEntity, "ERR_EMPTY_VALIDATION"},
		{"provider down", fmt.Errorf("%w: %w", usecase.ErrMarketData, errors.New("timeout")), http.StatusBadGateway, "ERR_MARKET_DATA"},
		{"busy", usecase.ErrForecastInProgress, http.StatusConflict, "ERR_FORECAST_IN_PROGRESS"},
		{"shape", forecast.ErrShapeMismatch, http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewForecastHandler(nil, &fakeForecasts{err: tt.err}, nil, nil)
			rec := serve(t, h, http.MethodGet, "/api/predict_stock?code=005930", "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if got := errorCode(t, rec); got != tt.code {
				t.Fatalf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestPredictMissingCode(t *testing.T) {
	h := NewForecastHandler(nil, &fakeForecasts{}, nil, nil)
	rec := serve(t, h, http.MethodGet, "/api/predict_stock", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "ERR_MISSING_CODE" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestPredictSuccess(t *testing.T) {
	token := "3f1c2a8e-5b7d-4e21-9c0a-1d2e3f4a5b6c"
	res := &models.ForecastResult{
		Symbol:   "005930.KS",
		Forecast: []models.ForecastPoint{{Date: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), Price: 71000}},
	}
	svc := &fakeForecasts{res: res}
	h := NewForecastHandler(nil, svc, nil, nil)
	rec := serve(t, h, http.MethodGet, "/api/predict_stock?code=005930&token="+token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(HeaderProgressToken) != token {
		t.Fatalf("missing progress token header")
	}
	if len(svc.params) != 1 || svc.params[0].Token != token || svc.params[0].Symbol != "005930" {
		t.Fatalf("params = %+v", svc.params)
	}
	var env envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	var got models.ForecastResult
	if err := json.Unmarshal(env.Data, &got); err != nil || got.Symbol != "005930.KS" || len(got.Forecast) != 1 {
		t.Fatalf("data = %s, %v", env.Data, err)
	}
}

func TestPredictRejectsMalformedToken(t *testing.T) {
	h := NewForecastHandler(nil, &fakeForecasts{}, nil, nil)
	rec := serve(t, h, http.MethodGet, "/api/predict_stock?code=005930&token=abc", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "ERR_UUID" {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
}

func TestPredictRateLimited(t *testing.T) {
	h := NewForecastHandler(nil, &fakeForecasts{}, nil, denyAll{})
	rec := serve(t, h, http.MethodGet, "/api/predict_stock?code=005930", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestEnqueueForecast(t *testing.T) {
	h := NewForecastHandler(nil, &fakeForecasts{}, &fakeJobs{token: "tok"}, nil)
	rec := serve(t, h, http.MethodPost, "/api/forecasts", `{"code":"AAPL"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"token":"tok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}

	h = NewForecastHandler(nil, &fakeForecasts{}, &fakeJobs{err: fmt.Errorf("%w: %w", usecase.ErrQueueUnavailable, errors.New("full"))}, nil)
	rec = serve(t, h, http.MethodPost, "/api/forecasts", `{"code":"AAPL"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestForecastHistory(t *testing.T) {
	hist := make([]models.ForecastRecord, 5)
	h := NewForecastHandler(nil, &fakeForecasts{hist: hist}, nil, nil)
	rec := serve(t, h, http.MethodGet, "/api/forecasts/history?code=AAPL&limit=3", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":3`) {
		t.Fatalf("got %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(t, h, http.MethodGet, "/api/forecasts/history?code=AAPL&limit=5000", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("limit above 1000 should be rejected, got %d", rec.Code)
	}
}

func newProgress(t *testing.T) *progress.Tracker {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })
	return progress.NewTracker(c, time.Hour, time.Minute)
}

func TestProgressEndpoints(t *testing.T) {
	tracker := newProgress(t)
	h := NewProgressHandler(nil, tracker, 0)

	rec := serve(t, h, http.MethodGet, "/progress", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"progress":0}` {
		t.Fatalf("idle progress = %d %s", rec.Code, rec.Body.String())
	}

	ctx := context.Background()
	token := tracker.NewToken()
	_ = tracker.Begin(ctx, token, "AAPL")
	_ = tracker.Update(ctx, token, 42)

	rec = serve(t, h, http.MethodGet, "/progress", "")
	if strings.TrimSpace(rec.Body.String()) != `{"progress":42}` {
		t.Fatalf("latest progress = %s", rec.Body.String())
	}
	rec = serve(t, h, http.MethodGet, "/api/progress?token="+token, "")
	var p models.Progress
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil || p.Percent != 42 || p.Symbol != "AAPL" {
		t.Fatalf("token progress = %s", rec.Body.String())
	}
	rec = serve(t, h, http.MethodGet, "/api/progress?token="+tracker.NewToken(), "")
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "ERR_UNKNOWN_TOKEN" {
		t.Fatalf("unknown token = %d %s", rec.Code, rec.Body.String())
	}
}

func TestProgressStream(t *testing.T) {
	tracker := newProgress(t)
	ctx := context.Background()
	token := tracker.NewToken()
	_ = tracker.Begin(ctx, token, "AAPL")

	e := echo.New()
	NewProgressHandler(nil, tracker, 10*time.Millisecond).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/progress?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first progressMessage
	if err := conn.ReadJSON(&first); err != nil || first.Progress != 0 || first.Token != token {
		t.Fatalf("first message = %+v, %v", first, err)
	}

	_ = tracker.Update(ctx, token, 50)
	_ = tracker.Update(ctx, token, 100)
	_ = tracker.Finish(ctx, token, nil)

	var last progressMessage
	for !last.Done {
		if err := conn.ReadJSON(&last); err != nil {
			t.Fatalf("read: %v", err)
		}
	}
	if last.Progress != 100 || last.Error != "" {
		t.Fatalf("final message = %+v", last)
	}
}

func TestProgressStreamUnknownToken(t *testing.T) {
	h := NewProgressHandler(nil, newProgress(t), 0)
	rec := serve(t, h, http.MethodGet, "/ws/progress?token=3f1c2a8e-5b7d-4e21-9c0a-1d2e3f4a5b6c", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

type fakeNews struct {
	snap  *models.NewsSnapshot
	err   error
	items []models.NewsItem
	args  []string
}

func (f *fakeNews) Monitor(context.Context) (*models.NewsSnapshot, error) { return f.snap, f.err }

func (f *fakeNews) Latest(_ context.Context, keyword, sentiment string) ([]models.NewsItem, error) {
	f.args = []string{keyword, sentiment}
	return f.items, nil
}

func TestNewsEndpoints(t *testing.T) {
	svc := &fakeNews{
		snap:  &models.NewsSnapshot{Items: []models.NewsItem{{Keyword: "삼성전자"}}},
		items: []models.NewsItem{{Keyword: "삼성전자", Sentiment: models.SentimentPositive}},
	}
	h := NewNewsHandler(nil, svc)

	rec := serve(t, h, http.MethodPost, "/api/news/monitor", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "삼성전자") {
		t.Fatalf("monitor = %d %s", rec.Code, rec.Body.String())
	}
	rec = serve(t, h, http.MethodGet, "/api/news?keyword=%EC%82%BC%EC%84%B1%EC%A0%84%EC%9E%90&sentiment=%EA%B8%8D%EC%A0%95", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Fatalf("list = %d %s", rec.Code, rec.Body.String())
	}
	if svc.args[0] != "삼성전자" || svc.args[1] != models.SentimentPositive {
		t.Fatalf("filters = %v", svc.args)
	}
	rec = serve(t, h, http.MethodGet, "/api/news?sentiment=good", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad sentiment = %d", rec.Code)
	}

	svc.err = usecase.ErrMonitorRunning
	rec = serve(t, h, http.MethodPost, "/api/news/monitor", "")
	if rec.Code != http.StatusConflict || errorCode(t, rec) != "ERR_MONITOR_RUNNING" {
		t.Fatalf("running = %d %s", rec.Code, rec.Body.String())
	}
}
