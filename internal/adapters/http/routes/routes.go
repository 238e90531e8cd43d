package routes

import (
	"campus-cardhub/internal/adapters/credentials"
	"campus-cardhub/internal/adapters/http/handlers"
	"campus-cardhub/internal/adapters/http/middleware"
	"campus-cardhub/internal/adapters/persistence/repositories"
	"campus-cardhub/internal/adapters/storage"
	"campus-cardhub/internal/config"
	"campus-cardhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, log zerolog.Logger, sessions *services.SessionBroker) {
	// Initialize repositories
	directoryRepo := repositories.NewDirectoryRepository(db)
	credentialRepo := repositories.NewCredentialRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)

	// Initialize adapters
	credentialProvider := credentials.NewLocalProvider(credentialRepo, log)
	imageStorage := storage.NewLocalImageStorage(cfg.Storage.Dir, cfg.Storage.BaseURL, log)

	// Initialize services
	lifecycleService := services.NewLifecycleService(directoryRepo, credentialProvider, imageStorage, log)
	authService := services.NewAuthService(directoryRepo, refreshTokenRepo, credentialProvider, sessions, cfg, log)
	resolverService := services.NewResolverService(directoryRepo, log)
	exportService := services.NewExportService(directoryRepo, log)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, lifecycleService, cfg)
	userHandler := handlers.NewUserHandler(lifecycleService)
	kioskHandler := handlers.NewKioskHandler(resolverService)
	exportHandler := handlers.NewExportHandler(exportService, lifecycleService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Profile images
	app.Static(cfg.Storage.BaseURL, cfg.Storage.Dir)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, authHandler, userHandler, kioskHandler, exportHandler, cfg)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	kioskHandler *handlers.KioskHandler,
	exportHandler *handlers.ExportHandler,
	cfg *config.Config,
) {
	// Auth routes (public, rate limited)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Kiosk routes (public; kiosk hosts are unattended devices)
	kioskRoutes := router.Group("/kiosk")
	kioskRoutes.Post("/resolve", kioskHandler.Resolve)

	// User management routes (Staff/Admin)
	userRoutes := router.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.StaffOrAdmin())
	setupUserRoutes(userRoutes, userHandler, exportHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.Refresh)
	router.Post("/logout", handler.Logout)
	router.Post("/forgot-password", middleware.AuthRateLimiter(), handler.ForgotPassword)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures account management routes (Staff/Admin)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler, exportHandler *handlers.ExportHandler) {
	router.Get("/", handler.List)
	router.Get("/export", middleware.AdminOnly(), exportHandler.ExportUsers)
	router.Post("/approve-bulk", handler.ApproveBulk)
	router.Post("/deactivate-bulk", handler.DeactivateBulk)
	router.Get("/:id", handler.Get)
	router.Post("/:id/approve", handler.Approve)
	router.Put("/:id/active", handler.SetActive)
	router.Put("/:id/nfc", middleware.AdminOnly(), handler.AssignNfc)
	router.Delete("/:id/nfc", middleware.AdminOnly(), handler.RemoveNfc)
	router.Put("/:id/delegation", middleware.AdminOnly(), handler.SetDelegation)
	router.Put("/:id/image", handler.SetImage)
	router.Delete("/:id", handler.Delete)
}
