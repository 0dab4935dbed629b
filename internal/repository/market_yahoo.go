package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	xhttp "github.com/kimyeonkyu7453/SPP/pkg/http"
	applogger "github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// YahooMarketConfig holds chart endpoint settings.
type YahooMarketConfig struct {
	BaseURL       string
	Range         string
	Interval      string
	DefaultSuffix string
}

// YahooMarket implements MarketData on top of the Yahoo chart API.
type YahooMarket struct {
	client *xhttp.Client
	cfg    YahooMarketConfig
	l      *applogger.Logger
}

func NewYahooMarket(client *xhttp.Client, cfg YahooMarketConfig) *YahooMarket {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.Interval == "" {
		cfg.Interval = "1d"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &YahooMarket{client: client, cfg: cfg}
}

// SetLogger injects a structured logger.
func (y *YahooMarket) SetLogger(l *applogger.Logger) { y.l = l }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				Currency             string `json:"currency"`
				GMTOffset            int    `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// ResolveSymbol maps a bare six digit KRX code to its Yahoo ticker.
func ResolveSymbol(code, suffix string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 6 || suffix == "" {
		return code
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return code
		}
	}
	return code + suffix
}

// Daily returns daily bars in ascending date order. Bars without a close are skipped.
func (y *YahooMarket) Daily(ctx context.Context, symbol string) ([]models.Candle, error) {
	start := time.Now()
	ticker := ResolveSymbol(symbol, y.cfg.DefaultSuffix)
	if ticker == "" {
		return nil, domrepo.ErrSymbolNotFound
	}

	var payload yahooChart
	err := y.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", y.cfg.BaseURL, url.PathEscape(ticker)),
		QueryParams: map[string][]string{
			"interval": {y.cfg.Interval},
			"range":    {string(domrepo.NormalizeRange(y.cfg.Range))},
		},
	}, &payload)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", ticker, domrepo.ErrSymbolNotFound)
		}
		if y.l != nil {
			y.l.Error("yahoo chart request failed", applogger.String("symbol", ticker), applogger.Error(err))
		}
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	if e := payload.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return nil, fmt.Errorf("%s: %w", ticker, domrepo.ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("yahoo error %s: %s", e.Code, e.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, domrepo.ErrNoMarketData)
	}

	res := payload.Chart.Result[0]
	q := res.Indicators.Quote[0]
	loc := exchangeLocation(res.Meta.ExchangeTimezoneName, res.Meta.GMTOffset)

	type bar struct {
		ts int64
		c  models.Candle
	}
	bars := make([]bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		c := at(q.Close, i)
		if c == nil {
			continue
		}
		bars = append(bars, bar{ts: ts, c: models.Candle{
			Date:   tradingDay(ts, loc),
			Symbol: ticker,
			Open:   value(at(q.Open, i), *c),
			High:   value(at(q.High, i), *c),
			Low:    value(at(q.Low, i), *c),
			Close:  *c,
			Volume: value(at(q.Volume, i), 0),
		}})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, domrepo.ErrNoMarketData)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].ts < bars[j].ts })

	// Yahoo may append a live-session bar on the same day as the last daily bar; the later one wins.
	out := make([]models.Candle, 0, len(bars))
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.c.Date) {
			out[n-1] = b.c
			continue
		}
		out = append(out, b.c)
	}

	if y.l != nil {
		y.l.Info("yahoo daily ok",
			applogger.String("symbol", ticker),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// exchangeLocation prefers the named exchange zone and falls back to the fixed offset Yahoo reports.
func exchangeLocation(name string, gmtOffset int) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if gmtOffset == 0 {
		return time.UTC
	}
	return time.FixedZone("exchange", gmtOffset)
}

// tradingDay is the exchange-local calendar date of ts, as midnight UTC.
func tradingDay(ts int64, loc *time.Location) time.Time {
	y, m, d := time.Unix(ts, 0).In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func value(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
