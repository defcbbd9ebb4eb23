package sync

import (
	"fleet-sync/core/logger"
	"fleet-sync/core/middleware/auth"
	"fleet-sync/feature/sync/conflict"
	"fleet-sync/feature/sync/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for device synchronization.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	app.Post("/integrations/:integrationId/sync", h.HandleSync)

	group := app.Group("/sync")
	group.Get("/conflicts", h.HandleListConflicts)
	group.Post("/conflicts/:conflictId/resolve", h.HandleResolveConflict)
	group.Get("/runs", h.HandleListRuns)
}

// HandleSync runs a sync for one integration.
// @Summary Sync Integration
// @Description Reconciles the canonical devices of an integration with the provider inventory. dryRun computes the outcome without writing.
// @Tags sync
// @Accept json
// @Produce json
// @Param integrationId path string true "Integration ID"
// @Param body body Options false "Sync options"
// @Success 200 {object} Result "Sync Result"
// @Failure 403 {object} map[string]string "Integration belongs to another organization"
// @Failure 409 {object} map[string]string "A sync is already running"
// @Failure 422 {object} map[string]string "Configuration error"
// @Router /integrations/{integrationId}/sync [post]
func (h *Handler) HandleSync(c *fiber.Ctx) error {
	l := logger.WithCaller(h.service.logger, c)
	integrationID := c.Params("integrationId")

	var opts Options
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&opts); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
		}
	}

	result, err := h.service.SyncIntegration(c.UserContext(), auth.Organization(c), integrationID, opts)
	if err != nil {
		l.Error("Sync failed", zap.String("integration_id", integrationID), zap.Error(err))
		body := fiber.Map{"status": models.RunFailed, "error": err.Error()}
		if result != nil && result.RunID != "" {
			body["runId"] = result.RunID
		}
		return c.Status(StatusCode(err)).JSON(body)
	}

	return c.JSON(result)
}

// HandleListConflicts lists unresolved conflicts.
// @Summary List Unresolved Conflicts
// @Description Unresolved conflicts of the caller's organization, newest first.
// @Tags sync
// @Produce json
// @Param deviceId query string false "Restrict to one device"
// @Success 200 {array} models.Conflict "Conflicts"
// @Router /sync/conflicts [get]
func (h *Handler) HandleListConflicts(c *fiber.Ctx) error {
	l := logger.WithCaller(h.service.logger, c)

	conflicts, err := h.service.Resolver().ListUnresolved(c.UserContext(), auth.Organization(c), c.Query("deviceId"))
	if err != nil {
		l.Error("Failed to list conflicts", zap.Error(err))
		return c.Status(StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if conflicts == nil {
		conflicts = []models.Conflict{}
	}
	return c.JSON(conflicts)
}

type resolveBody struct {
	Resolution  models.Resolution `json:"resolution"`
	CustomValue any               `json:"customValue"`
	Notes       *string           `json:"notes"`
}

// HandleResolveConflict applies a manual decision to a conflict.
// @Summary Resolve Conflict
// @Description Writes the chosen value to the device and finalizes the conflict. customValue is required for a custom resolution.
// @Tags sync
// @Accept json
// @Produce json
// @Param conflictId path string true "Conflict ID"
// @Param body body resolveBody true "Resolution"
// @Success 200 {object} models.Conflict "Resolved conflict"
// @Failure 404 {object} map[string]string "Conflict not found"
// @Failure 409 {object} map[string]string "Conflict already resolved"
// @Failure 422 {object} map[string]string "Invalid resolution"
// @Router /sync/conflicts/{conflictId}/resolve [post]
func (h *Handler) HandleResolveConflict(c *fiber.Ctx) error {
	l := logger.WithCaller(h.service.logger, c)

	var body resolveBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	resolved, err := h.service.Resolver().Resolve(c.UserContext(), conflict.ResolveRequest{
		OrganizationID: auth.Organization(c),
		ConflictID:     c.Params("conflictId"),
		Resolution:     body.Resolution,
		CustomValue:    body.CustomValue,
		ResolvedBy:     auth.User(c),
		Notes:          body.Notes,
	})
	if err != nil {
		l.Warn("Conflict resolution rejected", zap.String("conflict_id", c.Params("conflictId")), zap.Error(err))
		return c.Status(StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(resolved)
}

// HandleListRuns lists the sync run history.
// @Summary List Sync Runs
// @Tags sync
// @Produce json
// @Param integrationId query string false "Restrict to one integration"
// @Param limit query int false "Maximum number of runs (default 50)"
// @Success 200 {array} models.SyncRun "Sync runs"
// @Router /sync/runs [get]
func (h *Handler) HandleListRuns(c *fiber.Ctx) error {
	runs, err := h.service.Runs(c.UserContext(), auth.Organization(c), c.Query("integrationId"), c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	return c.JSON(runs)
}
