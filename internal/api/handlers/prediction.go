/**
 * @description
 * Prediction API handlers.
 * Exposes the forecast pipeline (run) and the latest persisted forecast set.
 *
 * @dependencies
 * - github.com/gofiber/fiber/v2
 * - backend/internal/services
 * - backend/internal/rpt
 */

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/salesight/backend/internal/logger"
	"github.com/salesight/backend/internal/rpt"
	"github.com/salesight/backend/internal/services"
)

// DefaultHorizonMonths is used when a run request omits "months".
const DefaultHorizonMonths = 12

type PredictionHandler struct {
	Service *services.PredictionService
}

func NewPredictionHandler(service *services.PredictionService) *PredictionHandler {
	return &PredictionHandler{Service: service}
}

type runPredictionRequest struct {
	Product string `json:"product"`
	Months  *int   `json:"months"`
	Persist *bool  `json:"persist"`
}

// RunPrediction executes one forecast run
// POST /api/v1/predictions/run
func (h *PredictionHandler) RunPrediction(c *fiber.Ctx) error {
	var req runPredictionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	months := DefaultHorizonMonths
	if req.Months != nil {
		months = *req.Months
	}
	persist := true
	if req.Persist != nil {
		persist = *req.Persist
	}

	records, err := h.Service.RunPrediction(c.Context(), services.RunParams{
		Product: req.Product,
		Months:  months,
		Persist: persist,
	})
	if err != nil {
		logger.Error("Prediction run failed: %v", err)
		return c.Status(statusForError(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(records)
}

// GetForecasts returns the latest persisted forecast set
// GET /api/v1/forecasts
func (h *PredictionHandler) GetForecasts(c *fiber.Ctx) error {
	records, err := h.Service.LatestForecasts(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch forecasts",
		})
	}
	return c.JSON(records)
}

// statusForError maps pipeline failures to their HTTP equivalents:
// user-correctable input problems are 400, provider failures 502, and
// everything else (configuration, parse, empty result, storage) 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrNoHistory):
		return fiber.StatusBadRequest
	case errors.Is(err, rpt.ErrUpstream):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
