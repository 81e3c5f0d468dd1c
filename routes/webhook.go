package routes

import (
	"github.com/gofiber/fiber/v2"

	handlers "tabib.link/handlers/api"
)

// registerWebhookRoutes mounts the payment-provider callback endpoint.
func registerWebhookRoutes(app *fiber.App) {
	webhookHandler := handlers.NewWebhookHandler()
	app.Post("/webhooks/payment", webhookHandler.Receive)
}
