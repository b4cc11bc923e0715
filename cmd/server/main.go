package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"insurehub/internal/adapters/http/middleware"
	"insurehub/internal/adapters/http/routes"
	"insurehub/internal/adapters/persistence/models"
	"insurehub/internal/adapters/persistence/repositories"
	"insurehub/internal/config"
	"insurehub/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// @title InsureHub API
// @version 1.0
// @description Insurance policy and claim lifecycle API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@insurehub.example.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed roles (and demo accounts when enabled)
	if err := config.NewSeeder(db, cfg.SeedDemoUsers).Run(context.Background()); err != nil {
		log.Fatalf("❌ Failed to seed database: %v", err)
	}

	// Start Cron Service for refresh token purge (03:00 daily)
	cronService := services.NewCronService(repositories.NewRefreshTokenRepository(db))
	if err := cronService.Start(); err != nil {
		log.Fatalf("❌ Failed to start cron service: %v", err)
	}
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "InsureHub API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
