//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/kimyeonkyu7453/SPP/pkg/config"
	"github.com/kimyeonkyu7453/SPP/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideStateCache,
		ProvideCheckpoints,
		ProvideProgressTracker,
		ProvideMarketData,
		ProvideForecastStore,
		ProvideKafkaProducer,
		ProvideEventPublisher,

		// Use cases
		ProvideForecaster,
		ProvideJobRuntime,
		ProvideNewsMonitor,
		ProvideNewsScheduler,
		ProvideAccounts,

		// HTTP
		ProvideRateLimiter,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
