package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kimyeonkyu7453/SPP/internal/usecase"
	"github.com/kimyeonkyu7453/SPP/pkg/config"
	xhttp "github.com/kimyeonkyu7453/SPP/pkg/http"
	pkgkafka "github.com/kimyeonkyu7453/SPP/pkg/kafka"
	applogger "github.com/kimyeonkyu7453/SPP/pkg/logger"
)

// Pruner drops idle state, like rate limit buckets of clients gone quiet.
type Pruner interface {
	Prune() int
}

// Workers are the optional background parts of the app. Nil members are skipped.
type Workers struct {
	LocalJobs  *usecase.ChannelJobQueue
	Consumer   *pkgkafka.Consumer
	JobHandler pkgkafka.MessageHandler
	Scheduler  *usecase.NewsScheduler
	Pruner     Pruner
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	workers    Workers
	stopPrune  chan struct{}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, log *applogger.Logger, httpServer *xhttp.Server, workers Workers) *App {
	if log == nil {
		log = applogger.NewNop()
	}
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		workers:    workers,
		stopPrune:  make(chan struct{}),
	}
}

// Start launches the background workers and the HTTP server.
func (a *App) Start() error {
	w := a.workers
	if w.LocalJobs != nil {
		w.LocalJobs.Start()
		a.log.Info("local forecast queue started")
	}
	if w.Consumer != nil && w.JobHandler != nil {
		w.Consumer.RegisterHandler(w.JobHandler)
		if err := w.Consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", w.JobHandler.Topic()))
	}
	if w.Scheduler != nil {
		w.Scheduler.Start()
	}
	if w.Pruner != nil {
		go a.pruneLoop(w.Pruner, time.Minute)
	}

	return a.httpServer.Start()
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		a.log.Error("app start failed", applogger.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	a.log.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

func (a *App) pruneLoop(p Pruner, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-a.stopPrune:
			return
		case <-t.C:
			if n := p.Prune(); n > 0 {
				a.log.Debug("pruned idle rate limit buckets", applogger.Int("count", n))
			}
		}
	}
}

// Shutdown stops intake first, then lets running work finish within the shutdown timeout.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down...")

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	w := a.workers
	close(a.stopPrune)
	if w.Scheduler != nil {
		w.Scheduler.Stop()
	}
	if w.Consumer != nil {
		if err := w.Consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if w.LocalJobs != nil {
		if err := w.LocalJobs.Stop(shutdownCtx); err != nil {
			a.log.Warn("local forecast queue stop error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
