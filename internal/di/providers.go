package di

import (
	"context"
	"fmt"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	"github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/internal/handler/api"
	internalrepo "github.com/kimyeonkyu7453/SPP/internal/repository"
	"github.com/kimyeonkyu7453/SPP/internal/service/ratelimit"
	"github.com/kimyeonkyu7453/SPP/internal/services/forecast"
	"github.com/kimyeonkyu7453/SPP/internal/services/news"
	"github.com/kimyeonkyu7453/SPP/internal/services/progress"
	"github.com/kimyeonkyu7453/SPP/internal/usecase"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
	pkgch "github.com/kimyeonkyu7453/SPP/pkg/clickhouse"
	"github.com/kimyeonkyu7453/SPP/pkg/config"
	xhttp "github.com/kimyeonkyu7453/SPP/pkg/http"
	"github.com/kimyeonkyu7453/SPP/pkg/http/middleware"
	pkgkafka "github.com/kimyeonkyu7453/SPP/pkg/kafka"
	"github.com/kimyeonkyu7453/SPP/pkg/logger"
	"github.com/kimyeonkyu7453/SPP/pkg/metrics"
	"github.com/kimyeonkyu7453/SPP/pkg/server"
)

const (
	newsSnapshotTTL  = 24 * time.Hour
	memoryHistoryRun = 20
	userAgent        = "Mozilla/5.0 (compatible; spp/1.0)"
)

// JobRuntime is the async forecast path: the local queue or the Kafka consumer, never both.
type JobRuntime struct {
	Jobs     *usecase.ForecastJobs
	Local    *usecase.ChannelJobQueue
	Consumer *pkgkafka.Consumer
	Handler  pkgkafka.MessageHandler
}

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

func newRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideStateCache holds progress readings, per-symbol locks and the news snapshot.
// progress.backend picks Redis or the in-process cache.
func ProvideStateCache(cfg *config.Config, l *logger.Logger) (cache.Service, func(), error) {
	var c cache.Service
	if cfg.Progress.Backend == "redis" {
		rc, err := newRedisCache(cfg)
		if err != nil {
			return nil, nil, err
		}
		c = rc
	} else {
		c = cache.NewMemoryCache()
	}
	l.Info("state cache ready", logger.String("backend", cfg.Progress.Backend))
	return c, func() { _ = c.Close() }, nil
}

// ProvideCheckpoints selects where best-epoch weights are parked during training.
func ProvideCheckpoints(cfg *config.Config, state cache.Service) (forecast.CheckpointStore, func(), error) {
	ck := cfg.Forecast.Checkpoint
	switch ck.Backend {
	case "file":
		fc, err := internalrepo.NewFileCheckpoints(ck.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fc, func() {}, nil
	case "redis":
		if _, ok := state.(*cache.RedisCache); ok {
			return internalrepo.NewCacheCheckpoints(state, ck.TTL), func() {}, nil
		}
		rc, err := newRedisCache(cfg)
		if err != nil {
			return nil, nil, err
		}
		return internalrepo.NewCacheCheckpoints(rc, ck.TTL), func() { _ = rc.Close() }, nil
	default:
		return forecast.NewMemoryCheckpoints(), func() {}, nil
	}
}

// ProvideProgressTracker creates the per-token progress tracker.
func ProvideProgressTracker(cfg *config.Config, state cache.Service, l *logger.Logger) *progress.Tracker {
	return progress.NewTracker(state, cfg.Progress.TTL, cfg.Progress.Linger, progress.WithLogger(l))
}

// ProvideMarketData creates the Yahoo chart client.
func ProvideMarketData(cfg *config.Config, l *logger.Logger) repository.MarketData {
	client := xhttp.NewClient(
		xhttp.WithTimeout(cfg.Market.Timeout),
		xhttp.WithHeader("User-Agent", userAgent),
	)
	m := internalrepo.NewYahooMarket(client, internalrepo.YahooMarketConfig{
		BaseURL:       cfg.Market.BaseURL,
		Range:         cfg.Market.Range,
		Interval:      cfg.Market.Interval,
		DefaultSuffix: cfg.Market.DefaultSuffix,
	})
	m.SetLogger(l)
	return m
}

// ProvideForecastStore uses ClickHouse when enabled, otherwise keeps recent runs in memory.
func ProvideForecastStore(cfg *config.Config, l *logger.Logger) (repository.ForecastStore, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return internalrepo.NewMemoryForecastStore(memoryHistoryRun), func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	store := internalrepo.NewCHForecastStore(client, cfg.ClickHouse.Database, cfg.ClickHouse.Table)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse forecast store ready",
		logger.String("database", cfg.ClickHouse.Database),
		logger.String("table", cfg.ClickHouse.Table),
	)
	return store, func() { _ = store.Close() }, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

func kafkaTopics(cfg *config.Config) internalrepo.KafkaTopics {
	return internalrepo.KafkaTopics{
		ForecastRequests: cfg.Kafka.Topics.ForecastRequests,
		ForecastEvents:   cfg.Kafka.Topics.ForecastEvents,
		News:             cfg.Kafka.Topics.News,
	}
}

// ProvideEventPublisher publishes to Kafka when a producer exists and logs events otherwise.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer, m repository.Metrics, l *logger.Logger) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NewLogEvents(l)
	}
	return internalrepo.NewKafkaEvents(producer, kafkaTopics(cfg), m)
}

// ProvideForecaster builds the forecast use case from the forecast section.
func ProvideForecaster(
	cfg *config.Config,
	market repository.MarketData,
	state cache.Service,
	tracker *progress.Tracker,
	checkpoints forecast.CheckpointStore,
	m repository.Metrics,
	store repository.ForecastStore,
	events repository.EventPublisher,
	l *logger.Logger,
) (*usecase.Forecaster, error) {
	f := cfg.Forecast
	fc := usecase.ForecastConfig{
		Horizon:      f.Horizon,
		TestRatio:    f.TestRatio,
		LearningRate: f.LearningRate,
		Arch: forecast.Architecture{
			Window:     f.Window,
			Filters:    f.Filters,
			KernelSize: f.KernelSize,
			Units:      f.Units,
			Dense:      f.Dense,
		},
		Trainer: forecast.TrainerConfig{
			MaxEpochs: f.MaxEpochs,
			Patience:  f.Patience,
			BatchSize: f.BatchSize,
			Seed:      f.Seed,
		},
		LockTTL: f.LockTTL,
	}
	suffix := cfg.Market.DefaultSuffix
	return usecase.NewForecaster(market, state, tracker, checkpoints, m, fc,
		usecase.WithForecastStore(store),
		usecase.WithEventPublisher(events),
		usecase.WithSymbolResolver(func(s string) string { return internalrepo.ResolveSymbol(s, suffix) }),
		usecase.WithForecasterLogger(l.With(logger.String("component", "forecaster"))),
	)
}

// ProvideJobRuntime wires async forecast jobs onto Kafka when enabled, otherwise onto a local queue.
func ProvideJobRuntime(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	tracker *progress.Tracker,
	forecaster *usecase.Forecaster,
	m repository.Metrics,
	l *logger.Logger,
) (*JobRuntime, error) {
	jl := l.With(logger.String("component", "forecast_jobs"))
	if producer == nil {
		var jobs *usecase.ForecastJobs
		local := usecase.NewChannelJobQueue(jl, cfg.Forecast.QueueSize, func(ctx context.Context, job *models.ForecastJob) error {
			return jobs.Handle(ctx, job)
		})
		jobs = usecase.NewForecastJobs(local, tracker, forecaster, jl)
		return &JobRuntime{Jobs: jobs, Local: local}, nil
	}

	topic := cfg.Kafka.Topics.ForecastRequests
	jobs := usecase.NewForecastJobs(internalrepo.NewKafkaJobQueue(producer, topic), tracker, forecaster, jl)
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		// one training run at a time per instance
		pkgkafka.WithConsumerWorkers(1),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(jl),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return &JobRuntime{
		Jobs:     jobs,
		Consumer: consumer,
		Handler:  usecase.NewKafkaForecastJobHandler(topic, jobs, m),
	}, nil
}

// ProvideNewsMonitor builds the news sentiment monitor, or nil when news is disabled.
func ProvideNewsMonitor(cfg *config.Config, state cache.Service, events repository.EventPublisher, m repository.Metrics, l *logger.Logger) *usecase.NewsMonitor {
	n := cfg.News
	if !n.Enabled {
		return nil
	}
	client := xhttp.NewClient(xhttp.WithTimeout(n.Timeout))
	return usecase.NewNewsMonitor(
		news.NewNaverSearch(client, n.BaseURL, n.ClientID, n.ClientSecret),
		news.NewCollyFetcher(n.UserAgent, n.Timeout),
		news.NewLexicon(nil, nil),
		internalrepo.NewCacheNewsStore(state, newsSnapshotTTL),
		events,
		m,
		usecase.NewsConfig{Keywords: n.Keywords, Display: n.Display, FetchArticles: n.FetchArticles},
		l.With(logger.String("component", "news")),
	)
}

// ProvideNewsScheduler schedules monitoring when a cron spec is configured.
func ProvideNewsScheduler(cfg *config.Config, monitor *usecase.NewsMonitor, l *logger.Logger) (*usecase.NewsScheduler, error) {
	if monitor == nil || cfg.News.Schedule == "" {
		return nil, nil
	}
	return usecase.NewNewsScheduler(monitor, cfg.News.Schedule, cfg.News.Timeout*time.Duration(len(cfg.News.Keywords)+1), l)
}

// ProvideAccounts builds account registration and sessions on the state cache, or nil when auth is disabled.
func ProvideAccounts(cfg *config.Config, state cache.Service, l *logger.Logger) *usecase.Accounts {
	if !cfg.Auth.Enabled {
		return nil
	}
	return usecase.NewAccounts(
		internalrepo.NewCacheUserStore(state),
		internalrepo.NewCacheSessionStore(state),
		usecase.AccountsConfig{BcryptCost: cfg.Auth.BcryptCost, SessionTTL: cfg.Auth.SessionTTL},
		l.With(logger.String("component", "accounts")),
	)
}

// ProvideRateLimiter limits forecast requests per client IP, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond)
}

// ProvideHandlers collects the HTTP route groups.
func ProvideHandlers(
	cfg *config.Config,
	forecaster *usecase.Forecaster,
	jobs *JobRuntime,
	tracker *progress.Tracker,
	monitor *usecase.NewsMonitor,
	accounts *usecase.Accounts,
	limiter *ratelimit.Limiter,
	l *logger.Logger,
) []xhttp.Handler {
	hl := l.With(logger.String("component", "http"))
	var lim middleware.KeyedLimiter
	if limiter != nil {
		lim = limiter
	}
	handlers := []xhttp.Handler{
		api.NewForecastHandler(hl, forecaster, jobs.Jobs, lim),
		api.NewProgressHandler(hl, tracker, cfg.Progress.PollInterval),
	}
	if monitor != nil {
		handlers = append(handlers, api.NewNewsHandler(hl, monitor))
	}
	if accounts != nil {
		handlers = append(handlers, api.NewAuthHandler(hl, accounts, api.SessionCookie{
			Name:   cfg.Auth.CookieName,
			TTL:    cfg.Auth.SessionTTL,
			Secure: cfg.Auth.CookieSecure,
		}))
	}
	return handlers
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	httpServer *xhttp.Server,
	jobs *JobRuntime,
	scheduler *usecase.NewsScheduler,
	limiter *ratelimit.Limiter,
) *server.App {
	w := server.Workers{
		LocalJobs:  jobs.Local,
		Consumer:   jobs.Consumer,
		JobHandler: jobs.Handler,
		Scheduler:  scheduler,
	}
	if limiter != nil {
		w.Pruner = limiter
	}
	return server.New(cfg, l, httpServer, w)
}
