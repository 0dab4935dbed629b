package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/internal/services/forecast"
	"github.com/kimyeonkyu7453/SPP/internal/services/progress"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
	"github.com/kimyeonkyu7453/SPP/pkg/logger"
	"github.com/kimyeonkyu7453/SPP/pkg/util"
)

// ForecastConfig holds the model and pipeline settings of a run.
type ForecastConfig struct {
	Horizon      int
	TestRatio    float64
	LearningRate float64
	Arch         forecast.Architecture
	Trainer      forecast.TrainerConfig
	LockTTL      time.Duration
}

// DefaultForecastConfig mirrors the config defaults.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Horizon:      30,
		TestRatio:    0.2,
		LearningRate: 0.0005,
		Arch:         forecast.DefaultArchitecture(),
		Trainer:      forecast.DefaultTrainerConfig(),
		LockTTL:      30 * time.Minute,
	}
}

// ForecastParams identifies one run. An empty Token gets a fresh one.
type ForecastParams struct {
	Symbol string
	Token  string
}

// Forecaster runs the full fetch, train, forecast pipeline for one symbol.
type Forecaster struct {
	market      domrepo.MarketData
	store       domrepo.ForecastStore
	events      domrepo.EventPublisher
	locks       cache.Service
	progress    *progress.Tracker
	checkpoints forecast.CheckpointStore
	metrics     domrepo.Metrics
	cfg         ForecastConfig
	l           *logger.Logger
	now         func() time.Time
	resolve     func(string) string
}

// ForecasterOption configures a Forecaster.
type ForecasterOption func(*Forecaster)

// WithForecastStore enables persisting completed runs.
func WithForecastStore(s domrepo.ForecastStore) ForecasterOption {
	return func(f *Forecaster) { f.store = s }
}

// WithEventPublisher enables completion events.
func WithEventPublisher(p domrepo.EventPublisher) ForecasterOption {
	return func(f *Forecaster) { f.events = p }
}

// WithSymbolResolver maps user supplied codes to the tickers forecasts are stored under.
func WithSymbolResolver(resolve func(string) string) ForecasterOption {
	return func(f *Forecaster) { f.resolve = resolve }
}

func WithForecasterLogger(l *logger.Logger) ForecasterOption {
	return func(f *Forecaster) { f.l = l }
}

func WithForecasterClock(now func() time.Time) ForecasterOption {
	return func(f *Forecaster) { f.now = now }
}

func NewForecaster(
	market domrepo.MarketData,
	locks cache.Service,
	tracker *progress.Tracker,
	checkpoints forecast.CheckpointStore,
	metrics domrepo.Metrics,
	cfg ForecastConfig,
	opts ...ForecasterOption,
) (*Forecaster, error) {
	if err := cfg.Arch.Validate(); err != nil {
		return nil, fmt.Errorf("forecast architecture: %w", err)
	}
	if cfg.Horizon <= 0 {
		return nil, fmt.Errorf("forecast horizon must be positive, got %d", cfg.Horizon)
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	f := &Forecaster{
		market:      market,
		locks:       locks,
		progress:    tracker,
		checkpoints: checkpoints,
		metrics:     metrics,
		cfg:         cfg,
		l:           logger.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Progress exposes the tracker so callers can read run progress.
func (f *Forecaster) Progress() *progress.Tracker { return f.progress }

func lockKey(symbol string) string { return cache.GenerateKey("lock:forecast", symbol) }

// Run executes one forecast. The symbol lock prevents two concurrent trainings of the same
// symbol; the progress reading under p.Token is finished whatever the outcome.
func (f *Forecaster) Run(ctx context.Context, p ForecastParams) (res *models.ForecastResult, err error) {
	symbol := strings.ToUpper(strings.TrimSpace(p.Symbol))
	if symbol == "" {
		return nil, ErrMissingSymbol
	}
	token := p.Token
	if token == "" {
		token = f.progress.NewToken()
	}
	start := f.now()
	log := f.l.With(logger.String("symbol", symbol), logger.String("token", token))

	lockToken, ok, err := f.locks.TryLock(ctx, lockKey(symbol), f.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire forecast lock: %w", err)
	}
	if !ok {
		f.metrics.RecordForecast(symbol, "busy")
		return nil, fmt.Errorf("%s: %w", symbol, ErrForecastInProgress)
	}
	defer func() {
		if uerr := f.locks.Unlock(context.Background(), lockKey(symbol), lockToken); uerr != nil {
			log.Warn("release forecast lock failed", logger.Error(uerr))
		}
	}()

	if err := f.progress.Begin(ctx, token, symbol); err != nil {
		return nil, err
	}
	defer func() {
		if ferr := f.progress.Finish(context.Background(), token, err); ferr != nil {
			log.Warn("finish progress failed", logger.Error(ferr))
		}
		outcome := "ok"
		if err != nil {
			outcome = outcomeOf(err)
			f.metrics.RecordError("forecast_" + outcome)
		}
		f.metrics.RecordForecast(symbol, outcome)
		f.metrics.RecordLatency("forecast_total", f.now().Sub(start).Seconds())
	}()

	res, err = f.run(ctx, symbol, token, log)
	if err != nil {
		log.Error("forecast failed", logger.Error(err))
		return nil, err
	}

	f.persist(ctx, res, log)
	log.Info("forecast completed",
		logger.String("run_id", res.RunID),
		logger.Int("epochs", res.Training.Epochs),
		logger.Float64("best_val_loss", res.Training.BestValLoss),
		logger.Int64("duration_ms", res.Training.DurationMs),
	)
	return res, nil
}

func (f *Forecaster) run(ctx context.Context, symbol, token string, log *logger.Logger) (*models.ForecastResult, error) {
	fetchStart := f.now()
	candles, err := f.market.Daily(ctx, symbol)
	f.metrics.RecordLatency("market_fetch", f.now().Sub(fetchStart).Seconds())
	if err != nil {
		if errors.Is(err, domrepo.ErrSymbolNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMarketData, err)
	}
	closes := models.Closes(candles)
	w := f.cfg.Arch.Window
	if len(closes) < w+1 {
		return nil, fmt.Errorf("%d closes for window %d: %w", len(closes), w, forecast.ErrInsufficientHistory)
	}

	scaler := forecast.NewMinMaxScaler()
	scaled, err := scaler.FitTransform(closes)
	if err != nil {
		return nil, fmt.Errorf("scale closes: %w", err)
	}
	trainSeries, testSeries, err := forecast.SplitChronological(scaled, f.cfg.TestRatio)
	if err != nil {
		return nil, err
	}
	trainEx, err := forecast.Windows(trainSeries, w)
	if err != nil {
		return nil, fmt.Errorf("training windows: %w", err)
	}
	valEx, err := forecast.Windows(testSeries, w)
	if err != nil && !errors.Is(err, forecast.ErrInsufficientHistory) {
		return nil, fmt.Errorf("validation windows: %w", err)
	}

	runID := uuid.NewString()
	model, err := forecast.NewModel(f.cfg.Arch, f.cfg.LearningRate, rand.New(rand.NewSource(f.cfg.Trainer.Seed)))
	if err != nil {
		return nil, err
	}
	observer := forecast.ObserverFunc(func(ctx context.Context, r forecast.EpochReport) {
		if err := f.progress.Update(ctx, token, r.Progress); err != nil {
			log.Warn("progress update failed", logger.Error(err))
		}
	})
	trainer, err := forecast.NewTrainer(f.cfg.Trainer, f.checkpoints,
		forecast.WithObserver(observer),
		forecast.WithTrainerLogger(log),
	)
	if err != nil {
		return nil, err
	}
	tr, err := trainer.Train(ctx, model, runID, trainEx, valEx)
	if err != nil {
		return nil, err
	}
	f.metrics.RecordTraining(symbol, tr.Epochs, tr.BestValLoss, tr.StoppedEarly)

	seed := testSeries[len(testSeries)-w:]
	predicted, err := forecast.Forecast(model, seed, f.cfg.Horizon)
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	prices, err := scaler.InverseTransform(predicted)
	if err != nil {
		return nil, fmt.Errorf("inverse transform: %w", err)
	}
	last := candles[len(candles)-1]
	dates := util.BusinessDaysAfter(last.Date, len(prices))
	points := make([]models.ForecastPoint, len(prices))
	for i := range prices {
		points[i] = models.ForecastPoint{Date: dates[i], Price: prices[i]}
	}
	f.metrics.RecordLastForecast(symbol, prices[len(prices)-1])

	return &models.ForecastResult{
		RunID:      runID,
		Symbol:     last.Symbol,
		Candles:    candles,
		Forecast:   points,
		PriceRange: priceRange(closes[len(closes)-len(testSeries):]),
		Training: models.TrainingSummary{
			Epochs:       tr.Epochs,
			MaxEpochs:    f.cfg.Trainer.MaxEpochs,
			BestEpoch:    tr.BestEpoch + 1,
			BestValLoss:  tr.BestValLoss,
			StoppedEarly: tr.StoppedEarly,
			TrainSize:    len(trainEx),
			ValSize:      len(valEx),
			DurationMs:   tr.Duration.Milliseconds(),
		},
		CreatedAt: f.now().UTC(),
	}, nil
}

// priceRange pads the actual test prices by 5% on each side.
func priceRange(actual []float64) models.PriceRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range actual {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return models.PriceRange{Low: lo * 0.95, High: hi * 1.05}
}

// persist stores and announces the result. Failures are logged, never returned.
func (f *Forecaster) persist(ctx context.Context, res *models.ForecastResult, log *logger.Logger) {
	if f.store != nil {
		if err := f.store.Save(ctx, res); err != nil {
			f.metrics.RecordError("forecast_store")
			log.Error("store forecast failed", logger.Error(err))
		}
	}
	if f.events != nil {
		ev := &models.ForecastEvent{
			RunID:       res.RunID,
			Symbol:      res.Symbol,
			Forecast:    res.Forecast,
			BestValLoss: res.Training.BestValLoss,
			Epochs:      res.Training.Epochs,
			CreatedAt:   res.CreatedAt,
		}
		if err := f.events.PublishForecast(ctx, ev); err != nil {
			f.metrics.RecordError("forecast_publish")
			log.Error("publish forecast event failed", logger.Error(err))
		}
	}
}

// History returns stored forecast points for symbol.
func (f *Forecaster) History(ctx context.Context, symbol string, limit int) ([]models.ForecastRecord, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrMissingSymbol
	}
	if f.store == nil {
		return []models.ForecastRecord{}, nil
	}
	if f.resolve != nil {
		symbol = f.resolve(symbol)
	}
	return f.store.History(ctx, symbol, limit)
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrForecastInProgress):
		return "busy"
	case errors.Is(err, domrepo.ErrSymbolNotFound):
		return "unknown_symbol"
	case errors.Is(err, ErrMarketData):
		return "market_data"
	case errors.Is(err, forecast.ErrInsufficientHistory),
		errors.Is(err, forecast.ErrConstantSeries),
		errors.Is(err, forecast.ErrEmptyValidationSet):
		return "invalid_series"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
