package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// NewsScheduler triggers monitoring runs on a cron schedule (seconds field included).
type NewsScheduler struct {
	cron    *cron.Cron
	monitor *NewsMonitor
	timeout time.Duration
	l       *logger.Logger
}

func NewNewsScheduler(monitor *NewsMonitor, spec string, timeout time.Duration, l *logger.Logger) (*NewsScheduler, error) {
	if l == nil {
		l = logger.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	s := &NewsScheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		monitor: monitor,
		timeout: timeout,
		l:       l,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("register news schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *NewsScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.monitor.Monitor(ctx); err != nil && !errors.Is(err, ErrMonitorRunning) {
		s.l.Error("scheduled news monitoring failed", logger.Error(err))
	}
}

func (s *NewsScheduler) Start() {
	s.cron.Start()
	s.l.Info("news scheduler started")
}

// Stop stops the scheduler and waits for a running pass to return.
func (s *NewsScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.l.Info("news scheduler stopped")
}
