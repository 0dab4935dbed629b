package repository

import (
	"context"
	"fmt"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/pkg/kafka"
	applogger "github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// Publisher is what KafkaEvents needs from a producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	PublishBatch(ctx context.Context, topic string, messages []kafka.Message) error
	Close() error
}

// KafkaTopics names the topics used by the service.
type KafkaTopics struct {
	ForecastRequests string
	ForecastEvents   string
	News             string
}

// KafkaEvents publishes forecast completions and news items keyed by symbol or keyword.
type KafkaEvents struct {
	p       Publisher
	topics  KafkaTopics
	metrics domrepo.Metrics
}

var _ domrepo.EventPublisher = (*KafkaEvents)(nil)

func NewKafkaEvents(p Publisher, topics KafkaTopics, m domrepo.Metrics) *KafkaEvents {
	return &KafkaEvents{p: p, topics: topics, metrics: m}
}

func (k *KafkaEvents) PublishForecast(ctx context.Context, ev *models.ForecastEvent) error {
	if err := k.p.Publish(ctx, k.topics.ForecastEvents, []byte(ev.Symbol), ev); err != nil {
		return fmt.Errorf("publish forecast event: %w", err)
	}
	k.sent(k.topics.ForecastEvents)
	return nil
}

func (k *KafkaEvents) PublishNews(ctx context.Context, items []models.NewsItem) error {
	if len(items) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, len(items))
	for i := range items {
		msgs[i] = kafka.Message{Key: []byte(items[i].Keyword), Value: items[i]}
	}
	if err := k.p.PublishBatch(ctx, k.topics.News, msgs); err != nil {
		return fmt.Errorf("publish news: %w", err)
	}
	k.sent(k.topics.News)
	return nil
}

func (k *KafkaEvents) Close() error { return k.p.Close() }

func (k *KafkaEvents) sent(topic string) {
	if k.metrics != nil {
		k.metrics.RecordMessageSent("kafka", topic)
	}
}

// KafkaJobQueue enqueues forecast jobs on the requests topic.
type KafkaJobQueue struct {
	p     Publisher
	topic string
}

var _ domrepo.JobQueue = (*KafkaJobQueue)(nil)

func NewKafkaJobQueue(p Publisher, topic string) *KafkaJobQueue {
	return &KafkaJobQueue{p: p, topic: topic}
}

func (q *KafkaJobQueue) Enqueue(ctx context.Context, job *models.ForecastJob) error {
	if err := q.p.Publish(ctx, q.topic, []byte(job.Symbol), job); err != nil {
		return fmt.Errorf("enqueue forecast job: %w", err)
	}
	return nil
}

// LogEvents is the EventPublisher used when no broker is configured.
type LogEvents struct {
	l *applogger.Logger
}

var _ domrepo.EventPublisher = (*LogEvents)(nil)

func NewLogEvents(l *applogger.Logger) *LogEvents {
	if l == nil {
		l = applogger.NewNop()
	}
	return &LogEvents{l: l}
}

func (e *LogEvents) PublishForecast(_ context.Context, ev *models.ForecastEvent) error {
	e.l.Info("forecast completed",
		applogger.String("run_id", ev.RunID),
		applogger.String("symbol", ev.Symbol),
		applogger.Int("epochs", ev.Epochs),
		applogger.Float64("best_val_loss", ev.BestValLoss),
	)
	return nil
}

func (e *LogEvents) PublishNews(_ context.Context, items []models.NewsItem) error {
	e.l.Info("news analyzed", applogger.Int("items", len(items)))
	return nil
}

func (e *LogEvents) Close() error { return nil }
