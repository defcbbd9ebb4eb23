package integrity

import (
	"errors"

	"fleet-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/archive", h.HandleArchiveCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs the schema and archive checks.
// @Tags integrity
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	report := make(map[string]any)

	if schema, err := h.service.CheckSchema(); err != nil {
		report["schema"] = fiber.Map{"status": "error", "error": err.Error()}
	} else {
		report["schema"] = schema
	}

	switch archive, err := h.service.CheckArchive(c.UserContext()); {
	case errors.Is(err, ErrArchiveDisabled):
		report["archive"] = fiber.Map{"status": "disabled"}
	case err != nil:
		report["archive"] = fiber.Map{"status": "error", "error": err.Error()}
	default:
		report["archive"] = archive
	}

	return c.JSON(report)
}

// HandleSchemaCheck checks the canonical store schema.
// @Summary Check Schema
// @Description Checks that every table and column of the models exists in the database.
// @Tags integrity
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Matched {
		l.Warn("Schema drift detected", zap.Int("errors", len(report.Errors)))
	}
	return c.JSON(report)
}

// HandleArchiveCheck checks and optionally fixes the report archive.
// @Summary Check Archive
// @Description Checks that the archive bucket and its runs folder exist. Optionally creates them.
// @Tags integrity
// @Produce json
// @Param fix query boolean false "Create the missing bucket or folder"
// @Success 200 {object} map[string]interface{} "Archive Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Failure 503 {object} map[string]string "Archive disabled"
// @Router /integrity/archive [get]
func (h *Handler) HandleArchiveCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.Query("fix") == "true"

	report, err := h.service.CheckArchive(c.UserContext())
	if err != nil {
		if errors.Is(err, ErrArchiveDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		l.Error("Archive check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if !report.Healthy() {
		l.Warn("Archive incomplete", zap.Bool("bucket_exists", report.Exists), zap.Strings("missing", report.Missing))

		if fix {
			l.Info("Attempting to fix archive")
			fixed := append([]string(nil), report.Missing...)
			if err := h.service.FixArchive(c.UserContext(), report); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to fix archive",
					"details": err.Error(),
					"missing": report.Missing,
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"fixed":  fixed,
			})
		}
	}

	return c.JSON(fiber.Map{
		"status":  "checked",
		"report":  report,
		"missing": report.Missing,
	})
}
