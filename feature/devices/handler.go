package devices

import (
	"errors"

	"fleet-sync/core/logger"
	"fleet-sync/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for device status.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the device routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Get("/devices/:deviceId/status", h.HandleStatus)
}

// HandleStatus returns the canonical and live status of a device.
// @Summary Device Status
// @Description Canonical device record plus a live lookup against its provider. A failed lookup returns live null and liveError.
// @Tags devices
// @Produce json
// @Param deviceId path string true "Device ID"
// @Success 200 {object} Status "Device status"
// @Failure 404 {object} map[string]string "Device not found"
// @Router /devices/{deviceId}/status [get]
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	l := logger.WithCaller(h.service.logger, c)
	deviceID := c.Params("deviceId")

	status, err := h.service.Status(c.UserContext(), auth.Organization(c), deviceID)
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Failed to load device status", zap.String("device_id", deviceID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(status)
}
