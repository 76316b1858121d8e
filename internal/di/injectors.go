//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"anonchat/internal"
	"anonchat/internal/controllers"
	"anonchat/internal/providers"
	"anonchat/internal/services"
	"anonchat/internal/storage"
	"anonchat/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,

		storage.NewZstdCompressor,
		storage.NewProfileStore,
		storage.NewMessageStore,
		storage.NewRateLimiter,
		services.NewChatService,
		ProvideChatStats,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,
		storage.NewBackupManager,
		storage.NewScheduler,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
