package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rowsense/rowsense/internal/config"
	"github.com/rowsense/rowsense/internal/handlers"
	"github.com/rowsense/rowsense/internal/logging"
	"github.com/rowsense/rowsense/internal/middleware"
	"github.com/rowsense/rowsense/internal/services"
)

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, monitor *services.MonitorService, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, monitor)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	// API key authentication middleware
	authMiddleware := middleware.APIKeyAuth(logger, cfg.Auth.APIKeys, cfg.Auth.Enabled)

	// API v1 routes (protected by API key)
	v1 := app.Group("/api/v1", authMiddleware)

	v1.Get("/metrics", h.Metrics)
	v1.Get("/calibration", h.Calibration)
	v1.Get("/series", h.Series)
	v1.Post("/session/reset", h.ResetSession)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, monitor *services.MonitorService, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "RowSense Monitor",
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, monitor, cfg)

	return app
}
