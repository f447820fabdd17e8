//go:build wireinject
// +build wireinject

package di

import (
	"NotiGate/pkg/config"
	"NotiGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideClock,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideCacheService,
		ProvideHTTPClient,

		// Repositories
		ProvideNotificationLog,
		ProvideSignalPublisher,
		ProvideDispatcher,
		ProvideRecipientDirectory,
		ProvideAlertQueue,
		ProvideAlertSink,
		ProvideSignalStream,

		// Core services
		ProvideMonitor,
		ProvideDigestCache,
		ProvideAdmissionController,
		ProvideCalendar,

		// Use cases
		ProvideNotifier,
		ProvideGate,
		ProvideSignalPipeline,
		ProvideSignalCollector,
		ProvideKafkaSignalsHandler,
		ProvideDigestDispatcher,

		// HTTP
		ProvideGateHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
