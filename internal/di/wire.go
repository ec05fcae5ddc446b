//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"TrendPull/pkg/config"
	"TrendPull/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Sources
		ProvideCache,
		ProvidePriceSource,
		ProvideTrendSource,
		ProvideCSVSource,

		// Sinks
		ProvideArtifactWriter,
		ProvidePointStore,
		ProvidePublisher,

		// Use cases
		ProvidePipelineConfig,
		ProvidePipeline,

		// Serve mode
		ProvideStreamHub,
		ProvideHTTPServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
