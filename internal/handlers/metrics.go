package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/rowsense/rowsense/internal/downsampling"
	"github.com/rowsense/rowsense/internal/models"
	"github.com/rowsense/rowsense/internal/services"
)

// Metrics returns the current rowing metrics snapshot
func (h *Handler) Metrics(c *fiber.Ctx) error {
	return c.JSON(h.monitor.MetricsSnapshot())
}

// Calibration returns the current impulse calibration state
func (h *Handler) Calibration(c *fiber.Ctx) error {
	return c.JSON(h.monitor.CalibrationSnapshot())
}

// Series returns the (optionally downsampled) impulse trace.
//
// Query parameters:
//
//	field     - "raw" or "clean" (default "clean")
//	mode      - downsampling mode (default "auto")
//	threshold - target point count (default 1000)
func (h *Handler) Series(c *fiber.Ctx) error {
	field := c.Query("field", "clean")
	mode := downsampling.Mode(c.Query("mode", string(downsampling.ModeAuto)))
	threshold := c.QueryInt("threshold", downsampling.DefaultAutoThreshold)

	resp, err := h.monitor.Series(field, mode, threshold)
	if err != nil {
		var serviceErr *services.ServiceError
		if errors.As(err, &serviceErr) {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    serviceErr.Code,
					Message: serviceErr.Message,
					Path:    c.Path(),
				},
			})
		}

		h.logger.Error("Failed to build series response", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to build series response",
			},
		})
	}

	return c.JSON(resp)
}

// ResetSession discards the current session state
func (h *Handler) ResetSession(c *fiber.Ctx) error {
	h.monitor.ResetSession()
	h.logger.Info("Session reset requested", "ip", c.IP())

	return c.JSON(models.ResetResponse{
		Status: "reset",
	})
}
