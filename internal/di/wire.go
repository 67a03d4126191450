//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"FinForecast/pkg/config"
	"FinForecast/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideClickHouseClient,

		// Repositories
		ProvideArtifactStore,
		ProvideScalerStore,
		ProvideModelStore,
		ProvideEventPublisher,
		ProvideTrainingRunStore,

		// Services
		ProvideModelFactory,
		ProvideSourceFactory,
		ProvidePipeline,
		ProvidePredictionCache,
		ProvideTrainingLock,

		// Use cases
		ProvideTrainingUseCase,
		ProvidePredictionUseCase,
		ProvideJobQueue,
		ProvideRetrainScheduler,

		// Transport and application
		ProvideForecastHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
