package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kimyeonkyu7453/SPP/pkg/logger"
)

var (
	ErrQueueFull    = errors.New("queue is full")
	ErrQueueStopped = errors.New("queue is stopped")
)

// Handler processes one queued item.
type Handler[T any] func(ctx context.Context, item T) error

// QueueConfig contains the configuration for the queue
type QueueConfig struct {
	Workers    int           // number of workers
	QueueSize  int           // size of the queue
	RetryLimit int           // number of maximum retries
	RetryDelay time.Duration // time delay between retries
}

// MemoryQueue is a bounded in-process work queue drained by a fixed worker pool.
type MemoryQueue[T any] struct {
	logger  *logger.Logger
	config  QueueConfig
	handler Handler[T]
	items   chan T
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
	stopped bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewMemoryQueue[T any](lgr *logger.Logger, config QueueConfig, handler Handler[T]) *MemoryQueue[T] {
	if lgr == nil {
		lgr = logger.NewNop()
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 16
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MemoryQueue[T]{
		logger:  lgr,
		config:  config,
		handler: handler,
		items:   make(chan T, config.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *MemoryQueue[T]) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || q.stopped {
		return
	}
	q.running = true
	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.logger.Info("queue started", logger.Int("workers", q.config.Workers), logger.Int("size", q.config.QueueSize))
}

// Publish enqueues item without blocking.
func (q *MemoryQueue[T]) Publish(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return ErrQueueStopped
	}
	select {
	case q.items <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Len reports queued items not yet picked up by a worker.
func (q *MemoryQueue[T]) Len() int { return len(q.items) }

// Stop rejects new items, lets workers drain the queue and waits for them or ctx.
func (q *MemoryQueue[T]) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	close(q.items)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.cancel()
		q.logger.Info("queue stopped")
		return nil
	case <-ctx.Done():
		q.cancel()
		return fmt.Errorf("queue stop: %w", ctx.Err())
	}
}

func (q *MemoryQueue[T]) worker(id int) {
	defer q.wg.Done()
	for item := range q.items {
		q.process(id, item)
	}
}

func (q *MemoryQueue[T]) process(id int, item T) {
	for attempt := 0; ; attempt++ {
		err := q.safeHandle(item)
		if err == nil {
			return
		}
		if attempt >= q.config.RetryLimit {
			q.logger.Error("queue item failed",
				logger.Int("worker", id),
				logger.Int("attempts", attempt+1),
				logger.Error(err),
			)
			return
		}
		select {
		case <-time.After(q.config.RetryDelay):
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *MemoryQueue[T]) safeHandle(item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in queue handler: %v", r)
		}
	}()
	return q.handler(q.ctx, item)
}
