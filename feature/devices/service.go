package devices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-sync/core/provider"
	"fleet-sync/feature/providers"
	"fleet-sync/feature/sync/models"
	"fleet-sync/feature/sync/store"

	"go.uber.org/zap"
)

// ErrDeviceNotFound is returned when the device does not exist in the caller's organization.
var ErrDeviceNotFound = errors.New("device not found")

// LiveStatus is the provider's current view of a device.
type LiveStatus struct {
	Status          provider.Status `json:"status"`
	Name            *string         `json:"name,omitempty"`
	FirmwareVersion *string         `json:"firmwareVersion,omitempty"`
	LastSeenOnline  *time.Time      `json:"lastSeenOnline,omitempty"`
	LastSeenOffline *time.Time      `json:"lastSeenOffline,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
	FetchedAt       time.Time       `json:"fetchedAt"`
	Cached          bool            `json:"cached"`
}

// Status is the device status response. Live is nil when the lookup failed,
// LiveError then says why.
type Status struct {
	Device    *models.Device `json:"device"`
	Live      *LiveStatus    `json:"live"`
	LiveError string         `json:"liveError,omitempty"`
}

// Service combines canonical device records with live provider lookups.
type Service struct {
	store     *store.Store
	providers providers.Builder
	timeout   time.Duration
	cache     *statusCache
	logger    *zap.Logger
}

// NewService creates a device status service. Lookups are bounded by
// StatusTimeoutSeconds and reused for StatusCacheSeconds.
func NewService(s *store.Store, builder providers.Builder, cfg provider.Config, logger *zap.Logger) *Service {
	timeout := time.Duration(cfg.StatusTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		store:     s,
		providers: builder,
		timeout:   timeout,
		cache:     newStatusCache(time.Duration(cfg.StatusCacheSeconds) * time.Second),
		logger:    logger,
	}
}

// Status returns the canonical record of a device and, when its integration can
// be reached, the live provider status. A failed live lookup is not an error.
func (s *Service) Status(ctx context.Context, orgID, deviceID string) (*Status, error) {
	device, err := s.store.GetDevice(ctx, orgID, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
		}
		return nil, err
	}

	out := &Status{Device: device}
	live, err := s.live(ctx, device)
	if err != nil {
		s.logger.Warn("Live status lookup failed",
			zap.String("device_id", device.ID),
			zap.String("external_id", device.ExternalDeviceID),
			zap.Error(err))
		out.LiveError = err.Error()
		return out, nil
	}
	out.Live = live
	return out, nil
}

// live performs a single GetDeviceStatus call per lookup.
func (s *Service) live(ctx context.Context, device *models.Device) (*LiveStatus, error) {
	if device.IntegrationID == nil {
		return nil, errors.New("device is not linked to an integration")
	}
	integration, err := s.store.GetIntegration(ctx, *device.IntegrationID)
	if err != nil {
		return nil, err
	}
	if !integration.Enabled {
		return nil, fmt.Errorf("integration %s is disabled", integration.ID)
	}

	entry, hit, err := s.cache.get(ctx, cacheKey(integration.ID, device.ExternalDeviceID), func(ctx context.Context) (*provider.Snapshot, error) {
		p, err := s.providers.Build(ctx, integration)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return p.GetDeviceStatus(ctx, device.ExternalDeviceID)
	})
	if err != nil {
		return nil, err
	}

	snap := entry.snapshot
	return &LiveStatus{
		Status:          snap.Status,
		Name:            snap.Name,
		FirmwareVersion: snap.FirmwareVersion,
		LastSeenOnline:  snap.LastSeenOnline,
		LastSeenOffline: snap.LastSeenOffline,
		Metadata:        snap.Metadata,
		FetchedAt:       entry.fetchedAt,
		Cached:          hit,
	}, nil
}
