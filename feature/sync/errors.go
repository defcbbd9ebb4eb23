package sync

import (
	"errors"
	"fmt"

	"fleet-sync/core/provider"
	"fleet-sync/core/runlock"
	"fleet-sync/feature/sync/conflict"
	"fleet-sync/feature/sync/models"
	"fleet-sync/feature/sync/store"

	"github.com/gofiber/fiber/v2"
)

var (
	// ErrAuthorization is returned when the integration belongs to another organization.
	ErrAuthorization = errors.New("integration does not belong to organization")
	// ErrIntegrationNotFound is returned for an unknown integration id.
	ErrIntegrationNotFound = errors.New("integration not found")
	// ErrIntegrationDisabled is a configuration error: disabled integrations are never synced.
	ErrIntegrationDisabled = fmt.Errorf("%w: integration is disabled", provider.ErrConfiguration)
)

// StatusCode maps an error of this feature to the HTTP status it answers with.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrAuthorization):
		return fiber.StatusForbidden
	case errors.Is(err, ErrIntegrationNotFound),
		errors.Is(err, conflict.ErrNotFound),
		errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, runlock.ErrAlreadyRunning),
		errors.Is(err, conflict.ErrAlreadyResolved):
		return fiber.StatusConflict
	case errors.Is(err, provider.ErrConfiguration),
		errors.Is(err, models.ErrValidation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, provider.ErrUnauthorized),
		errors.Is(err, provider.ErrRateLimited),
		errors.Is(err, provider.ErrUnavailable):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
