//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"CanSlim/pkg/config"
	"CanSlim/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideClickHouseClient,
		ProvideCache,
		ProvideMetrics,

		// Repositories
		ProvideMarketStore,
		ProvideSignalStore,
		ProvidePublisher,

		// Use cases
		ProvideCalculator,
		ProvideScreeningUseCase,
		ProvideTriggerHandler,
		ProvideKafkaConsumer,
		ProvideScheduler,

		// HTTP
		ProvideRateLimiter,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
