package internal

import (
	"net/http"

	"anonchat/internal/controllers"
	"anonchat/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController, healthController *controllers.HealthController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/health", http.HandlerFunc(healthController.Health))
	// single API path; the controller dispatches on the action field
	routers.Any("/", http.HandlerFunc(apiController.Dispatch))
	return routers
}
