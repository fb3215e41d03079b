package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"education-web/internal/config"
	"education-web/internal/service"
)

func Setup(app *fiber.App, db *sqlx.DB, redis *redis.Client, cfg *config.Config, hierarchy *service.HierarchyService) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"app":    cfg.AppName,
		})
	})

	// API routes (JSON)
	api := app.Group("/api/v1")
	SetupAPIRoutes(api, db, redis, cfg, hierarchy)
}
