package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"library-circulation/internal/adapters/http/middleware"
	"library-circulation/internal/adapters/http/routes"
	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/config"
	"library-circulation/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "library-circulation/docs" // Swagger docs
)

// @title Library Circulation API
// @version 1.0
// @description Copy registry, reservations, loans and shelf allocation for the library circulation desk.

// @contact.name API Support
// @contact.email circulation@library.example.org

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

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

	// Seed section grids, categories and policy settings
	if err := config.NewSeeder(db, cfg.Files.SectionGridFile, cfg.Policy()).Run(context.Background()); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	svc := services.NewContainer(db, cfg.ServiceOptions())

	// Outbox dispatcher delivers circulation notifications
	svc.Outbox.Start()
	defer svc.Outbox.Stop()

	// Scheduled reconciliation, expiry and overdue jobs
	if cfg.Cron.Enabled {
		if err := svc.Cron.Start(); err != nil {
			log.Fatalf("❌ Failed to start cron service: %v", err)
		}
		defer svc.Cron.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Library Circulation API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, svc, cfg)

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
