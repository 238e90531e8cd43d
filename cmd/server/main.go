package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"campus-cardhub/internal/adapters/http/middleware"
	"campus-cardhub/internal/adapters/http/routes"
	"campus-cardhub/internal/adapters/persistence/models"
	"campus-cardhub/internal/adapters/persistence/repositories"
	"campus-cardhub/internal/config"
	"campus-cardhub/internal/core/services"
	"campus-cardhub/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	applog := logger.New(cfg.AppMode)

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		applog.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		applog.Fatal().Err(err).Msg("Failed to auto migrate")
	}
	applog.Info().Msg("Database migration completed")

	// Seed the bootstrap admin account
	if err := config.NewSeeder(db, cfg, applog).Run(); err != nil {
		applog.Warn().Err(err).Msg("Failed to seed admin account")
	}

	// Daily cleanup of expired refresh tokens
	cronService := services.NewCronService(repositories.NewRefreshTokenRepository(db), applog)
	cronService.Start()
	defer cronService.Stop()

	// Session state observable for kiosk hosts
	sessions := services.NewSessionBroker()
	sessions.StartObserving()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Campus CardHub API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg, applog, sessions)

	// Graceful shutdown
	go gracefulShutdown(app, applog)

	// Start server
	applog.Info().Str("port", cfg.Port).Str("mode", cfg.AppMode).Msg("Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		applog.Fatal().Err(err).Msg("Failed to start server")
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App, applog zerolog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	applog.Info().Msg("Shutting down server")
	if err := app.Shutdown(); err != nil {
		applog.Error().Err(err).Msg("Error during shutdown")
	}
	applog.Info().Msg("Server stopped gracefully")
}
