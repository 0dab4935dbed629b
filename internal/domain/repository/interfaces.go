package repository

import (
	"context"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
)

// MarketData returns daily candles for a symbol in ascending date order.
type MarketData interface {
	Daily(ctx context.Context, symbol string) ([]models.Candle, error)
}

// ForecastStore persists completed forecasts.
type ForecastStore interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, res *models.ForecastResult) error
	History(ctx context.Context, symbol string, limit int) ([]models.ForecastRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// EventPublisher announces completed forecasts and news snapshots.
type EventPublisher interface {
	PublishForecast(ctx context.Context, ev *models.ForecastEvent) error
	PublishNews(ctx context.Context, items []models.NewsItem) error
	Close() error
}

// JobQueue carries asynchronous forecast jobs to a worker.
type JobQueue interface {
	Enqueue(ctx context.Context, job *models.ForecastJob) error
}

// NewsStore keeps the latest news snapshot.
type NewsStore interface {
	Replace(ctx context.Context, snap *models.NewsSnapshot) error
	Latest(ctx context.Context) (*models.NewsSnapshot, error)
}

type Metrics interface {
	RecordForecast(symbol, outcome string)
	RecordTraining(symbol string, epochs int, bestValLoss float64, stoppedEarly bool)
	RecordLastForecast(symbol string, price float64)
	RecordMessageSent(backend, topic string)
	RecordNewsItem(keyword, sentiment string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// UserStore keeps registered accounts keyed by normalized email.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, email string) (*models.User, error)
}

// SessionStore keeps login sessions until they expire or are deleted.
type SessionStore interface {
	Put(ctx context.Context, id string, u models.SessionUser, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.SessionUser, error)
	Delete(ctx context.Context, id string) error
}
