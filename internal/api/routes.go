/**
 * @description
 * API Route definitions.
 * Sets up the router groups and assigns handlers.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/api/handlers
 * - backend/internal/api/middleware
 * - backend/internal/services
 * - backend/internal/rpt
 */

package api

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/salesight/backend/internal/api/handlers"
	"github.com/salesight/backend/internal/api/middleware"
	"github.com/salesight/backend/internal/config"
	"github.com/salesight/backend/internal/rpt"
	"github.com/salesight/backend/internal/services"
	"gorm.io/gorm"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	// 1. Initialize Middleware
	if err := middleware.InitAuthMiddleware(cfg); err != nil {
		log.Printf("Failed to init auth middleware: %v", err)
		// The app still starts so the public read surface keeps working,
		// but protected routes will fail.
	}

	// 2. Initialize Services
	store := services.NewSalesStore(db)
	providerClient := rpt.NewClient(cfg.RPT1.URL, cfg.RPT1.AuthToken)
	predictionService := services.NewPredictionService(store, store, rdb, providerClient)

	// 3. Initialize Handlers
	predictionHandler := handlers.NewPredictionHandler(predictionService)

	// 4. Define Routes
	api := app.Group("/api")
	v1 := api.Group("/v1")

	// Public Routes
	v1.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	v1.Get("/forecasts", predictionHandler.GetForecasts)

	// Prediction Routes (Protected: a run replaces persisted forecasts)
	predictions := v1.Group("/predictions", middleware.Protected())
	predictions.Post("/run", predictionHandler.RunPrediction)
}
