package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"tabib.link/configs"
	"tabib.link/configs/configsdatabase"
	"tabib.link/configs/configslog"
	"tabib.link/pkg/events"
	"tabib.link/routes"
	"tabib.link/services"
)

func main() {
	configslog.InitLogger()
	defer configslog.SyncLogger()

	cfg := configs.Load()

	configsdatabase.InitDB()
	defer configsdatabase.CloseDB()

	// Notification rows are written by bus subscribers, wired once here.
	services.RegisterNotificationSubscribers(events.Default(), configs.GetDB())

	app := fiber.New(fiber.Config{
		AppName:      "tabib.link",
		ErrorHandler: fiberErrorHandler,
	})
	routes.SetupRoutes(app)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			configslog.Log.Fatal("Server failed to start", zap.Error(err))
		}
	}()
	configslog.SLog.Infof("Server listening on %s", cfg.ListenAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	configslog.SLog.Info("Shutting down...")
	if err := app.Shutdown(); err != nil {
		configslog.Log.Error("Server shutdown failed", zap.Error(err))
	}
	configslog.SLog.Info("Server stopped")
}

// fiberErrorHandler keeps unexpected fiber-level errors JSON-shaped.
func fiberErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code == fiber.StatusInternalServerError {
		configslog.Log.Error("Unhandled request error", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
