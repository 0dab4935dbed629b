package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	"github.com/kimyeonkyu7453/SPP/internal/services/forecast"
	"github.com/kimyeonkyu7453/SPP/internal/services/progress"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
	"github.com/kimyeonkyu7453/SPP/pkg/util"
)

type nopMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *nopMetrics) RecordForecast(_, outcome string) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, outcome)
	m.mu.Unlock()
}
func (m *nopMetrics) RecordTraining(string, int, float64, bool) {}
func (m *nopMetrics) RecordLastForecast(string, float64)        {}
func (m *nopMetrics) RecordMessageSent(string, string)          {}
func (m *nopMetrics) RecordNewsItem(string, string)             {}
func (m *nopMetrics) RecordError(string)                        {}
func (m *nopMetrics) RecordLatency(string, float64)             {}

func (m *nopMetrics) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.outcomes) == 0 {
		return ""
	}
	return m.outcomes[len(m.outcomes)-1]
}

type fakeMarket struct {
	candles []models.Candle
	err     error
	calls   int
}

func (f *fakeMarket) Daily(_ context.Context, _ string) ([]models.Candle, error) {
	f.calls++
	return f.candles, f.err
}

// businessCandles builds n daily candles on business days starting 2024-01-02.
func businessCandles(symbol string, closes []float64) []models.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dates := util.BusinessDaysAfter(start, len(closes))
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{Date: dates[i], Symbol: symbol, Open: c, High: c, Low: c, Close: c}
	}
	return out
}

func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/5) + float64(i)/10
	}
	return out
}

func testForecastConfig() ForecastConfig {
	return ForecastConfig{
		Horizon:      7,
		TestRatio:    0.2,
		LearningRate: 0.005,
		Arch:         forecast.Architecture{Window: 5, Filters: 4, KernelSize: 3, Units: 4, Dense: 4},
		Trainer:      forecast.TrainerConfig{MaxEpochs: 3, Patience: 2, BatchSize: 16, Seed: 7},
		LockTTL:      time.Minute,
	}
}

type forecastFixture struct {
	cache   *cache.MemoryCache
	tracker *progress.Tracker
	market  *fakeMarket
	metrics *nopMetrics
	ckpt    *forecast.MemoryCheckpoints
}

func newFixture(closes []float64) *forecastFixture {
	c := cache.NewMemoryCache()
	return &forecastFixture{
		cache:   c,
		tracker: progress.NewTracker(c, time.Hour, time.Minute),
		market:  &fakeMarket{candles: businessCandles("005930.KS", closes)},
		metrics: &nopMetrics{},
		ckpt:    forecast.NewMemoryCheckpoints(),
	}
}
