package sync

import (
	"time"

	"fleet-sync/feature/sync/models"
)

// Options selects the scope of one run.
type Options struct {
	// FullSync lists the whole inventory and allows retiring devices the
	// provider no longer reports. Otherwise only devices changed since the
	// last sync are listed and nothing is retired.
	FullSync bool `json:"fullSync"`
	// DryRun computes the outcome without writing anything.
	DryRun bool `json:"dryRun"`
}

// Mode returns the run mode implied by o.
func (o Options) Mode() models.Mode {
	if o.FullSync {
		return models.ModeFull
	}
	return models.ModeIncremental
}

// Result is the outcome of one sync run. Device lists hold external ids.
type Result struct {
	RunID            string            `json:"runId,omitempty"`
	IntegrationID    string            `json:"integrationId"`
	Mode             models.Mode       `json:"mode"`
	DryRun           bool              `json:"dryRun"`
	Status           models.RunStatus  `json:"status"`
	DevicesTotal     int               `json:"devicesTotal"`
	DevicesSucceeded int               `json:"devicesSucceeded"`
	DevicesFailed    int               `json:"devicesFailed"`
	Created          []string          `json:"created"`
	Updated          []string          `json:"updated"`
	Retired          []string          `json:"retired"`
	Unchanged        []string          `json:"unchanged"`
	Conflicts        []models.Conflict `json:"conflicts"`
	AutoResolved     int               `json:"autoResolved"`
	Errors           []models.RunError `json:"errors"`
	Truncated        bool              `json:"truncated"`
	StartedAt        time.Time         `json:"startedAt"`
	FinishedAt       time.Time         `json:"finishedAt"`
}

func newResult(integrationID string, opts Options, startedAt time.Time) *Result {
	return &Result{
		IntegrationID: integrationID,
		Mode:          opts.Mode(),
		DryRun:        opts.DryRun,
		Created:       []string{},
		Updated:       []string{},
		Retired:       []string{},
		Unchanged:     []string{},
		Conflicts:     []models.Conflict{},
		Errors:        []models.RunError{},
		StartedAt:     startedAt,
	}
}

func (r *Result) fail(externalID, deviceID, op string, err error) {
	r.DevicesFailed++
	r.Errors = append(r.Errors, models.RunError{
		DeviceID:   deviceID,
		ExternalID: externalID,
		Operation:  op,
		Message:    err.Error(),
	})
}

// seal fixes the status from the device counts.
func (r *Result) seal(finishedAt time.Time) {
	r.FinishedAt = finishedAt
	r.Status = models.SealStatus(r.DevicesTotal, r.DevicesSucceeded, r.DevicesFailed)
}

// record converts the result into its history row.
func (r *Result) record(orgID string, providerType models.ProviderType) (*models.SyncRun, error) {
	errs, err := models.EncodeValue(r.Errors)
	if err != nil {
		return nil, err
	}
	return &models.SyncRun{
		ID:                r.RunID,
		OrganizationID:    orgID,
		IntegrationID:     r.IntegrationID,
		ProviderType:      providerType,
		Mode:              r.Mode,
		DryRun:            r.DryRun,
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
		DurationMs:        r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
		DevicesTotal:      r.DevicesTotal,
		DevicesSucceeded:  r.DevicesSucceeded,
		DevicesFailed:     r.DevicesFailed,
		Created:           len(r.Created),
		Updated:           len(r.Updated),
		Retired:           len(r.Retired),
		Unchanged:         len(r.Unchanged),
		ConflictsDetected: len(r.Conflicts),
		Truncated:         r.Truncated,
		Status:            r.Status,
		Errors:            errs,
	}, nil
}
