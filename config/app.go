package config

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func NewApp(errorHandler fiber.ErrorHandler) *fiber.App {
	limit := Env.MaxUploadMB
	if limit <= 0 {
		limit = 10
	}

	app := fiber.New(fiber.Config{
		AppName:      Env.AppName,
		BodyLimit:    limit * 1024 * 1024,
		ErrorHandler: errorHandler,
	})

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	return app
}
