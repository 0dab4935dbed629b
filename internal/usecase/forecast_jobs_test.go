package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/domain/models"
	"github.com/kimyeonkyu7453/SPP/internal/services/progress"
	"github.com/kimyeonkyu7453/SPP/pkg/cache"
)

type recordingQueue struct {
	jobs []*models.ForecastJob
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job *models.ForecastJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type stubRunner struct {
	mu     sync.Mutex
	params []ForecastParams
	err    error
}

func (s *stubRunner) Run(_ context.Context, p ForecastParams) (*models.ForecastResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = append(s.params, p)
	return &models.ForecastResult{Symbol: p.Symbol}, s.err
}

func newTracker(t *testing.T) *progress.Tracker {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })
	return progress.NewTracker(c, time.Hour, time.Minute)
}

func TestForecastJobsEnqueue(t *testing.T) {
	tracker := newTracker(t)
	q := &recordingQueue{}
	jobs := NewForecastJobs(q, tracker, &stubRunner{}, nil)
	ctx := context.Background()

	if _, err := jobs.Enqueue(ctx, ""); !errors.Is(err, ErrMissingSymbol) {
		t.Fatalf("expected ErrMissingSymbol, got %v", err)
	}
	token, err := jobs.Enqueue(ctx, "005930")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(q.jobs) != 1 || q.jobs[0].Token != token || q.jobs[0].Symbol != "005930" {
		t.Fatalf("unexpected jobs %+v", q.jobs)
	}
	p, err := tracker.Get(ctx, token)
	if err != nil || p.Percent != 0 || p.Done {
		t.Fatalf("fresh job progress = %+v, %v", p, err)
	}
}

func TestForecastJobsEnqueueFailureFinishesToken(t *testing.T) {
	tracker := newTracker(t)
	jobs := NewForecastJobs(&recordingQueue{err: errors.New("broker down")}, tracker, &stubRunner{}, nil)
	_, err := jobs.Enqueue(context.Background(), "AAPL")
	if !errors.Is(err, ErrQueueUnavailable) {
		t.Fatalf("expected ErrQueueUnavailable, got %v", err)
	}
}

func TestForecastJobsHandleBusyFinishesToken(t *testing.T) {
	tracker := newTracker(t)
	runner := &stubRunner{err: ErrForecastInProgress}
	jobs := NewForecastJobs(&recordingQueue{}, tracker, runner, nil)
	ctx := context.Background()

	token, _ := jobs.Enqueue(ctx, "AAPL")
	if err := jobs.Handle(ctx, &models.ForecastJob{Token: token, Symbol: "AAPL"}); err != nil {
		t.Fatalf("handle should swallow run errors, got %v", err)
	}
	p, _ := tracker.Get(ctx, token)
	if !p.Done || p.Error == "" {
		t.Fatalf("busy job should finish its token with an error, got %+v", p)
	}
}

func TestChannelJobQueueRunsJobs(t *testing.T) {
	tracker := newTracker(t)
	runner := &stubRunner{}
	var jobs *ForecastJobs
	q := NewChannelJobQueue(nil, 4, func(ctx context.Context, j *models.ForecastJob) error { return jobs.Handle(ctx, j) })
	jobs = NewForecastJobs(q, tracker, runner, nil)
	q.Start()

	if _, err := jobs.Enqueue(context.Background(), "AAPL"); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(runner.params) != 1 || runner.params[0].Symbol != "AAPL" {
		t.Fatalf("runner params = %+v", runner.params)
	}
}

func TestKafkaForecastJobHandler(t *testing.T) {
	tracker := newTracker(t)
	runner := &stubRunner{}
	h := NewKafkaForecastJobHandler("jobs", NewForecastJobs(&recordingQueue{}, tracker, runner, nil), &nopMetrics{})
	if h.Topic() != "jobs" {
		t.Fatalf("topic = %s", h.Topic())
	}
	if err := h.Handle(context.Background(), []byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
	b, _ := json.Marshal(models.ForecastJob{Token: "tok", Symbol: "MSFT", EnqueuedAt: time.Now()})
	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(runner.params) != 1 || runner.params[0].Token != "tok" {
		t.Fatalf("runner params = %+v", runner.params)
	}
}
