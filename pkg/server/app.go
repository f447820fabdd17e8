package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NotiGate/internal/domain/repository"
	"NotiGate/internal/handler/api"
	"NotiGate/internal/usecase"
	pkgch "NotiGate/pkg/clickhouse"
	"NotiGate/pkg/config"
	xhttp "NotiGate/pkg/http"
	pkgkafka "NotiGate/pkg/kafka"
	applogger "NotiGate/pkg/logger"
	"NotiGate/pkg/queue"
)

const defaultSweepInterval = time.Hour

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	collector  *usecase.SignalCollector
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	alertQueue *queue.RedisQueue
	flusher    *usecase.DigestDispatcher
	admission  *usecase.AdmissionController
	publisher  repository.Publisher
	handler    *api.GateEchoHandler
	httpServer *xhttp.Server
	stopSweep  chan struct{}
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.SignalCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	alertQueue *queue.RedisQueue,
	flusher *usecase.DigestDispatcher,
	admission *usecase.AdmissionController,
	publisher repository.Publisher,
	handler *api.GateEchoHandler,
) *App {
	return &App{
		cfg:        cfg,
		logger:     lgr,
		collector:  collector,
		consumer:   consumer,
		kh:         kh,
		chClient:   chClient,
		alertQueue: alertQueue,
		flusher:    flusher,
		admission:  admission,
		publisher:  publisher,
		handler:    handler,
		stopSweep:  make(chan struct{}),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	serverOpts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, xhttp.WithRequestMetrics(l, time.Second))
	}
	a.httpServer = xhttp.NewServer(a.handler, serverOpts...)

	// Start alert queue workers
	if a.alertQueue != nil {
		if err := a.alertQueue.Start(); err != nil {
			l.Error("alert queue start error", applogger.Error(err))
		}
	}

	// Start stream collector if configured
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.Strings("symbols", a.cfg.Stream.Symbols))
	}

	// Start Kafka ingest if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Periodic digest flush
	a.flusher.Start(ctx)
	l.Info("digest dispatcher started")

	// Periodic cooldown sweep
	go a.sweepLoop(ctx)

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) sweepLoop(ctx context.Context) {
	interval := a.cfg.Policy.SweepInterval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopSweep:
			return
		case <-ticker.C:
			if removed := a.admission.SweepCooldowns(); removed > 0 {
				a.logger.Debug("cooldown sweep", applogger.Int("removed", removed))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	l.Info("shutting down...")

	close(a.stopSweep)

	// Stop collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Stop consuming new signals before the final digest flush
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Final digest flush, then stop HTTP
	a.flusher.Stop(ctx)

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Drain alert queue workers
	if a.alertQueue != nil {
		if err := a.alertQueue.Stop(shutdownCtx); err != nil {
			l.Warn("alert queue stop error", applogger.Error(err))
		}
	}

	// Flush any aggregated logs before the producer goes away
	a.logger.RemoveCollector()

	// Close infrastructure clients
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
