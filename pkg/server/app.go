package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	domrepo "CanSlim/internal/domain/repository"
	"CanSlim/internal/scheduler"
	"CanSlim/pkg/cache"
	pkgch "CanSlim/pkg/clickhouse"
	"CanSlim/pkg/config"
	xhttp "CanSlim/pkg/http"
	"CanSlim/pkg/http/middleware"
	pkgkafka "CanSlim/pkg/kafka"
	applogger "CanSlim/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	consumer    *pkgkafka.Consumer
	scheduler   *scheduler.Scheduler
	publisher   domrepo.Publisher
	closer      io.Closer
	chClient    *pkgch.Client
}

// New creates a new App instance with all dependencies. consumer and
// scheduler may be nil when disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	sched *scheduler.Scheduler,
	publisher domrepo.Publisher,
	c cache.Service,
	chClient *pkgch.Client,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{
		cfg:         cfg,
		l:           l,
		httpHandler: handler,
		consumer:    consumer,
		scheduler:   sched,
		publisher:   publisher,
		chClient:    chClient,
	}
	if closer, ok := c.(io.Closer); ok {
		a.closer = closer
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
		xhttp.WithCORS(a.cfg.Server.CORS.Enabled, middleware.CORSConfig{
			AllowOrigins: a.cfg.Server.CORS.AllowOrigins,
			MaxAge:       a.cfg.Server.CORS.MaxAge,
		}),
	}
	if a.cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	} else {
		opts = append(opts, xhttp.WithMetricsPath(""))
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, opts...)

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			a.l.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.cfg.Kafka.Topics.Triggers))
	}

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("canslim screener running",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port))

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then flushes and closes the clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}
	if a.scheduler != nil {
		a.scheduler.Stop(ctx)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// the collector publishes through the producer the publisher owns
	a.l.RemoveCollector()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.l.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.closer != nil {
		if err := a.closer.Close(); err != nil {
			a.l.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
