package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	domrepo "github.com/kimyeonkyu7453/SPP/internal/domain/repository"
	"github.com/kimyeonkyu7453/SPP/internal/services/progress"
	pkgkafka "github.com/kimyeonkyu7453/SPP/pkg/kafka"
	"github.com/kimyeonkyu7453/SPP/pkg/logger"
	"github.com/kimyeonkyu7453/SPP/pkg/queue"
)

// ForecastRunner is the part of Forecaster the job worker needs.
type ForecastRunner interface {
	Run(ctx context.Context, p ForecastParams) (*models.ForecastResult, error)
}

// ForecastJobs accepts forecast requests and runs them later on a worker.
type ForecastJobs struct {
	queue    domrepo.JobQueue
	progress *progress.Tracker
	runner   ForecastRunner
	l        *logger.Logger
	now      func() time.Time
}

func NewForecastJobs(q domrepo.JobQueue, tracker *progress.Tracker, runner ForecastRunner, l *logger.Logger) *ForecastJobs {
	if l == nil {
		l = logger.NewNop()
	}
	return &ForecastJobs{queue: q, progress: tracker, runner: runner, l: l, now: time.Now}
}

// Enqueue registers a progress token at 0% and hands the job to the queue.
func (j *ForecastJobs) Enqueue(ctx context.Context, symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", ErrMissingSymbol
	}
	token := j.progress.NewToken()
	if err := j.progress.Begin(ctx, token, symbol); err != nil {
		return "", err
	}
	job := &models.ForecastJob{Token: token, Symbol: symbol, EnqueuedAt: j.now().UTC()}
	if err := j.queue.Enqueue(ctx, job); err != nil {
		_ = j.progress.Finish(context.Background(), token, err)
		return "", fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}
	j.l.Info("forecast job enqueued", logger.String("symbol", symbol), logger.String("token", token))
	return token, nil
}

// Handle runs one job. Run failures are recorded on the progress token and not returned,
// since retrying a training run with the same inputs gives the same outcome.
func (j *ForecastJobs) Handle(ctx context.Context, job *models.ForecastJob) error {
	if job == nil || job.Symbol == "" {
		return ErrMissingSymbol
	}
	j.l.Info("forecast job started",
		logger.String("symbol", job.Symbol),
		logger.String("token", job.Token),
		logger.Duration("queued_ms", j.now().Sub(job.EnqueuedAt)),
	)
	_, err := j.runner.Run(ctx, ForecastParams{Symbol: job.Symbol, Token: job.Token})
	if err == nil {
		return nil
	}
	j.l.Warn("forecast job failed", logger.String("token", job.Token), logger.Error(err))
	// runs rejected before they began (busy symbol, lock errors) never finished the token
	if p, gerr := j.progress.Get(ctx, job.Token); gerr == nil && !p.Done {
		_ = j.progress.Finish(ctx, job.Token, err)
	}
	return nil
}

// ChannelJobQueue is the in-process JobQueue backed by a bounded worker queue.
type ChannelJobQueue struct {
	q *queue.MemoryQueue[*models.ForecastJob]
}

var _ domrepo.JobQueue = (*ChannelJobQueue)(nil)

// NewChannelJobQueue builds a single worker queue; jobs run one at a time.
func NewChannelJobQueue(l *logger.Logger, size int, handle func(context.Context, *models.ForecastJob) error) *ChannelJobQueue {
	return &ChannelJobQueue{q: queue.NewMemoryQueue[*models.ForecastJob](l, queue.QueueConfig{Workers: 1, QueueSize: size}, handle)}
}

func (c *ChannelJobQueue) Enqueue(ctx context.Context, job *models.ForecastJob) error {
	return c.q.Publish(ctx, job)
}

func (c *ChannelJobQueue) Start() { c.q.Start() }

func (c *ChannelJobQueue) Stop(ctx context.Context) error { return c.q.Stop(ctx) }

// KafkaForecastJobHandler consumes forecast jobs from Kafka.
type KafkaForecastJobHandler struct {
	topic   string
	jobs    *ForecastJobs
	metrics domrepo.Metrics
}

var _ pkgkafka.MessageHandler = (*KafkaForecastJobHandler)(nil)

func NewKafkaForecastJobHandler(topic string, jobs *ForecastJobs, metrics domrepo.Metrics) *KafkaForecastJobHandler {
	return &KafkaForecastJobHandler{topic: topic, jobs: jobs, metrics: metrics}
}

func (h *KafkaForecastJobHandler) Topic() string { return h.topic }

func (h *KafkaForecastJobHandler) Handle(ctx context.Context, b []byte) error {
	var job models.ForecastJob
	if err := json.Unmarshal(b, &job); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode forecast job: %w", err)
	}
	h.metrics.RecordLatency("job_queue_wait", time.Since(job.EnqueuedAt).Seconds())
	return h.jobs.Handle(ctx, &job)
}
