package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/formgate/formgate/app/controllers"
)

type PublicRouter struct {
}

// InstallRouter registers the unauthenticated surface: submission intake,
// account registration and the health endpoint.
func (h PublicRouter) InstallRouter(app *fiber.App) {
	controllers.InitializeSubmitController()

	api := app.Group("/api")
	api.Get("/healthz", controllers.HandleHealthz)
	api.Post("/register", controllers.HandleRegister)
	api.Post("/forms/:endpointSlug/submit", controllers.HandleSubmit)
}

func NewPublicRouter() *PublicRouter {
	return &PublicRouter{}
}
