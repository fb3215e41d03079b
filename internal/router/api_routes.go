package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"education-web/internal/config"
	"education-web/internal/handler"
	"education-web/internal/middleware"
	"education-web/internal/repository"
	"education-web/internal/service"
)

func SetupAPIRoutes(
	router fiber.Router,
	db *sqlx.DB,
	redisClient *redis.Client,
	cfg *config.Config,
	hierarchy *service.HierarchyService,
) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg)
	excelService := service.NewExcelService()
	importService := service.NewImportService(db, cfg, hierarchy)

	// Initialize Asynq client (optional - only if Redis is available)
	var asynqClient *asynq.Client
	if redisClient != nil {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPassword,
			DB:       cfg.AsynqRedisDB,
		})
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	hierarchyHandler := handler.NewHierarchyHandler(hierarchy)
	importHandler := handler.NewImportHandler(importService, hierarchy, excelService, asynqClient, redisClient, cfg)

	// Public routes
	auth := router.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(cfg))

	// Auth routes
	protected.Get("/auth/me", authHandler.Me)

	// Hierarchy routes
	hierarchyGroup := protected.Group("/hierarchy")
	hierarchyGroup.Get("/scope", hierarchyHandler.GetScope)
	hierarchyGroup.Post("/reload", middleware.RequireRoles(), hierarchyHandler.Reload)
	hierarchyGroup.Get("/institutions/:id", hierarchyHandler.GetInstitution)
	hierarchyGroup.Get("/institutions/:id/children", hierarchyHandler.GetChildren)
	hierarchyGroup.Get("/institutions/:id/subtree", hierarchyHandler.GetSubtree)

	// Import routes
	imports := protected.Group("/imports", middleware.ImportRoles())
	imports.Post("/", importHandler.UploadFile)
	imports.Get("/", importHandler.ListSessions)
	imports.Get("/templates/:kind", importHandler.DownloadTemplate)
	imports.Get("/:code", importHandler.GetSession)
	imports.Post("/:code/validate", importHandler.Validate)
	imports.Post("/:code/commit", importHandler.Commit)
	imports.Post("/:code/cancel", importHandler.Cancel)
	imports.Get("/:code/report", importHandler.DownloadReport)
}
