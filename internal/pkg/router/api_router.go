package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/formgate/formgate/app/controllers"
	"github.com/formgate/formgate/internal/pkg/middleware"
)

type ApiRouter struct {
}

// InstallRouter registers the authenticated management API under /api/v1.
// Every route requires a valid API key.
func (h ApiRouter) InstallRouter(app *fiber.App) {
	v1 := app.Group("/api/v1", middleware.APIKeyAuthMiddleware())

	v1.Post("/account/api-key", controllers.HandleRotateAPIKey)

	v1.Post("/forms", controllers.HandleCreateForm)
	v1.Get("/forms", controllers.HandleListForms)
	v1.Get("/forms/:id", controllers.HandleGetForm)
	v1.Put("/forms/:id", controllers.HandleUpdateForm)
	v1.Delete("/forms/:id", controllers.HandleDeleteForm)
	v1.Get("/forms/:id/submissions", controllers.HandleListSubmissions)

	v1.Patch("/submissions/:id/status", controllers.HandleUpdateSubmissionStatus)
	v1.Delete("/submissions/:id", controllers.HandleDeleteSubmission)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
