//go:build !wireinject
// +build !wireinject

// InitializeApp below is maintained by hand in the shape wire emits.
// TestInjectorMatchesWireBuild keeps it in step with the provider list in
// wire.go; `go generate ./internal/di` replaces it with wire's output.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

package di

import (
	"CanSlim/pkg/config"
	"CanSlim/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	logger, err := ProvideLogger(cfg, producer)
	if err != nil {
		return nil, err
	}
	client, err := ProvideClickHouseClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	service, err := ProvideCache(cfg, logger)
	if err != nil {
		return nil, err
	}
	metrics := ProvideMetrics()
	chMarketStore := ProvideMarketStore(client, cfg, logger)
	chSignalStore, err := ProvideSignalStore(client, cfg, logger)
	if err != nil {
		return nil, err
	}
	publisher := ProvidePublisher(producer, cfg)
	calculator := ProvideCalculator(cfg, logger)
	screeningUseCase := ProvideScreeningUseCase(calculator, chMarketStore, chSignalStore, publisher, service, metrics, logger, cfg)
	screenTriggerHandler := ProvideTriggerHandler(screeningUseCase, metrics, cfg, logger)
	consumer, err := ProvideKafkaConsumer(cfg, logger, screenTriggerHandler)
	if err != nil {
		return nil, err
	}
	scheduler, err := ProvideScheduler(screeningUseCase, cfg, logger)
	if err != nil {
		return nil, err
	}
	limiter := ProvideRateLimiter(cfg)
	handler := ProvideHTTPHandler(logger, screeningUseCase, limiter, chMarketStore, chSignalStore)
	app := ProvideApp(cfg, logger, handler, consumer, scheduler, publisher, service, client)
	return app, nil
}
