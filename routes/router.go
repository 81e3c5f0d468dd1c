package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	recoverMiddleware "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// SetupRoutes wires the global middleware and all route groups.
func SetupRoutes(app *fiber.App) {
	app.Use(recoverMiddleware.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	// The payment webhook authenticates with its own HMAC signature and must
	// stay outside the identity middleware.
	registerWebhookRoutes(app)

	registerAPIRoutes(app)

	app.Use(notFoundHandler)
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "resource not found"})
}
