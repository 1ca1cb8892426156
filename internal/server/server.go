package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"

	"github.com/SufailSLX/budget-tracker/internal/config"
	"github.com/SufailSLX/budget-tracker/internal/handlers"
	"github.com/SufailSLX/budget-tracker/internal/routes"
)

// New builds the Fiber app with the global middleware stack and all routes
// registered.
func New(cfg *config.Config, h *handlers.Handler, requireAuth fiber.Handler, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
	})

	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(cfg),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 15 * time.Minute,
	}))
	app.Use(requestLogger(logger))

	routes.Setup(app, h, requireAuth)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Endpoint not found",
			"path":    c.Path(),
		})
	})

	return app
}

func corsOrigins(cfg *config.Config) string {
	if cfg.App.CORSOrigin != "" {
		return cfg.App.CORSOrigin
	}
	return "*"
}

func requestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		latency := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			logger.Error("HTTP Request Error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
				zap.Int("status", status),
				zap.Duration("latency", latency),
				zap.Error(err),
			)
			return err
		}
		logger.Info("HTTP Request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)
		return nil
	}
}
