package di

import (
	"context"
	"fmt"
	"time"

	domrepo "CanSlim/internal/domain/repository"
	"CanSlim/internal/handler/api"
	internalrepo "CanSlim/internal/repository"
	"CanSlim/internal/scheduler"
	"CanSlim/internal/service/ratelimit"
	"CanSlim/internal/services/canslim"
	"CanSlim/internal/usecase"
	"CanSlim/pkg/cache"
	pkgch "CanSlim/pkg/clickhouse"
	"CanSlim/pkg/config"
	xhttp "CanSlim/pkg/http"
	pkgkafka "CanSlim/pkg/kafka"
	applogger "CanSlim/pkg/logger"
	"CanSlim/pkg/metrics"
	"CanSlim/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		RequiredAcks: cfg.Kafka.RequiredAcks,
		Compression:  cfg.Kafka.Compression,
		MaxAttempts:  cfg.Kafka.Producer.MaxAttempts,
		BatchSize:    cfg.Kafka.Producer.BatchSize,
		BatchBytes:   cfg.Kafka.Producer.BatchBytes,
		Linger:       cfg.Kafka.Producer.Linger,
		WriteTimeout: cfg.Kafka.Producer.WriteTimeout,
		ReadTimeout:  cfg.Kafka.Producer.ReadTimeout,
		Async:        cfg.Kafka.Producer.Async,
	})
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the application logger. With Kafka enabled, repeated
// errors are aggregated and shipped to the logs topic.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if producer != nil && cfg.Kafka.Topics.Logs != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topics.Logs,
			Publisher:      producer,
			Source:         "canslim-" + cfg.Environment,
		})
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and makes sure the
// database exists.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithAuth(cfg.ClickHouse.Database, cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithPool(10, 5, 5*time.Minute),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, []string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse database: %w", err)
	}
	l.Info("clickhouse: connected", applogger.String("database", cfg.ClickHouse.Database))
	return client, nil
}

// ProvideMetrics creates the Prometheus pipeline recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideMarketStore reads prices and fundamentals from ClickHouse.
func ProvideMarketStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) *internalrepo.CHMarketStore {
	s := internalrepo.NewCHMarketStore(ch, cfg.ClickHouse.Database, cfg.ClickHouse.Tables.Prices, cfg.ClickHouse.Tables.Fundamentals)
	s.SetLogger(l)
	return s
}

// ProvideSignalStore creates the signal and run tables when missing.
func ProvideSignalStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) (*internalrepo.CHSignalStore, error) {
	qualify := func(table string) string { return cfg.ClickHouse.Database + "." + table }
	s := internalrepo.NewCHSignalStore(ch, qualify(cfg.ClickHouse.Tables.Signals), qualify(cfg.ClickHouse.Tables.Runs))
	s.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("signal store schema: %w", err)
	}
	return s, nil
}

// ProvidePublisher publishes hits to Kafka, or drops them when Kafka is
// disabled.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.Publisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topics.Signals)
}

// ProvideCache returns Redis behind an in-process L1 when Redis is enabled,
// otherwise a process-local cache that still serves the run lock.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		l.Info("cache: redis disabled, using in-memory cache")
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.PoolSize / 2,
		Prefix:       cfg.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("cache: redis connected", applogger.String("addr", cfg.Redis.Addr))
	return cache.NewLayeredCache(rc, cfg.Redis.LocalSize, cfg.Redis.LocalTTL), nil
}

func ProvideCalculator(cfg *config.Config, l *applogger.Logger) *canslim.Calculator {
	return canslim.NewCalculator(l,
		canslim.WithWorkers(cfg.CanSlim.Workers),
		canslim.WithMarketProxy(cfg.CanSlim.MarketProxy),
	)
}

func ProvideScreeningUseCase(
	calc *canslim.Calculator,
	market *internalrepo.CHMarketStore,
	store *internalrepo.CHSignalStore,
	publisher domrepo.Publisher,
	c cache.Service,
	m domrepo.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.ScreeningUseCase {
	return usecase.NewScreeningUseCase(calc, market, store, publisher, c, m, l, usecase.ScreeningConfig{
		MarketProxy: cfg.CanSlim.MarketProxy,
		Proxies:     cfg.CanSlim.Proxies,
		Tickers:     cfg.CanSlim.Tickers,
		Criteria:    cfg.CanSlim.Criteria,
		WarmupDays:  cfg.CanSlim.WarmupDays,
		LockTTL:     cfg.CanSlim.LockTTL,
		CacheTTL:    cfg.Redis.TTL,
		Persist:     cfg.CanSlim.Persist,
		Publish:     cfg.CanSlim.Publish,
	})
}

// ProvideKafkaConsumer creates the trigger consumer, or nil when consuming
// is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, h *usecase.ScreenTriggerHandler) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.NewLoggingHook(l), pkgkafka.JSONPayloadHook{}))
	consumer.RegisterHandler(h)
	return consumer, nil
}

// ProvideTriggerHandler runs the screening for trigger messages.
func ProvideTriggerHandler(uc *usecase.ScreeningUseCase, m domrepo.Metrics, cfg *config.Config, l *applogger.Logger) *usecase.ScreenTriggerHandler {
	return usecase.NewScreenTriggerHandler(cfg.Kafka.Topics.Triggers, uc, m, l)
}

// ProvideScheduler schedules the trailing-window screening.
func ProvideScheduler(uc *usecase.ScreeningUseCase, cfg *config.Config, l *applogger.Logger) (*scheduler.Scheduler, error) {
	return scheduler.New(uc, scheduler.Config{
		Schedule:     cfg.CanSlim.Schedule,
		Timezone:     cfg.CanSlim.Timezone,
		LookbackDays: cfg.CanSlim.LookbackDays,
		Timeout:      cfg.CanSlim.RunTimeout,
	}, l)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideHTTPHandler registers the screening API.
func ProvideHTTPHandler(
	l *applogger.Logger,
	uc *usecase.ScreeningUseCase,
	rl *ratelimit.Limiter,
	market *internalrepo.CHMarketStore,
	store *internalrepo.CHSignalStore,
) xhttp.Handler {
	return api.NewCanSlimEchoHandler(l, uc, rl, map[string]api.HealthChecker{
		"market":  market,
		"signals": store,
	})
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	consumer *pkgkafka.Consumer,
	sched *scheduler.Scheduler,
	publisher domrepo.Publisher,
	c cache.Service,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, l, handler, consumer, sched, publisher, c, chClient)
}
