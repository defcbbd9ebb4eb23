package golioth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fleet-sync/core/provider"
	"fleet-sync/core/utils"
)

// Name is the provider name used in errors and logs.
const Name = "golioth"

// DefaultBaseURL is the public Golioth management API.
const DefaultBaseURL = "https://api.golioth.io"

// Options configures one Golioth project connection.
type Options struct {
	APIKey    string
	ProjectID string
}

// Adapter talks to the Golioth management API of one project.
type Adapter struct {
	projectID string
	http      *provider.HTTPClient
}

// New creates an adapter. client must be rooted at the API base URL.
func New(opts Options, client *provider.HTTPClient) (*Adapter, error) {
	if opts.APIKey == "" {
		return nil, provider.Configuration("golioth: api key is required")
	}
	if opts.ProjectID == "" {
		return nil, provider.Configuration("golioth: project id is required")
	}

	apiKey := opts.APIKey
	client.Authorize = func(req *http.Request, _ []byte) error {
		req.Header.Set("Authorization", "Bearer "+apiKey)
		return nil
	}
	return &Adapter{projectID: opts.ProjectID, http: client}, nil
}

func (a *Adapter) Name() string { return Name }

// Capabilities implements provider.Provider.
func (a *Adapter) Capabilities() provider.Capabilities {
	return provider.Capabilities{FirmwareInfo: true}
}

// device is the Golioth device resource.
type device struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	HardwareID      string         `json:"hardware_id"`
	HardwareIDs     []string       `json:"hardwareIds"`
	Status          string         `json:"status"`
	LastSeen        string         `json:"last_seen"`
	LastSeenOnline  string         `json:"lastSeenOnline"`
	LastSeenOffline string         `json:"lastSeenOffline"`
	CohortID        string         `json:"cohortId"`
	ParentDeviceID  string         `json:"parentDeviceId"`
	GatewayID       string         `json:"gatewayId"`
	UpdatedAt       string         `json:"updated_at"`
	Metadata        map[string]any `json:"metadata"`
	Tags            []string       `json:"tags"`
}

type listResponse struct {
	Data    []device `json:"data"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	PerPage int      `json:"perPage"`
}

// detailResponse accepts both the enveloped ({"data": {...}}) and the bare device form.
type detailResponse struct {
	Data *device `json:"data"`
	device
}

// ListDevices reads one page of the project inventory. The cursor is the page number.
// Entries without metadata are returned as partial snapshots.
func (a *Adapter) ListDevices(ctx context.Context, opts provider.ListOptions) (*provider.Page, error) {
	page := 1
	if opts.Cursor != "" {
		n, err := strconv.Atoi(opts.Cursor)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("golioth: invalid cursor %q", opts.Cursor)
		}
		page = n
	}
	perPage := opts.PageSize
	if perPage <= 0 {
		perPage = 100
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("perPage", strconv.Itoa(perPage))

	var resp listResponse
	path := fmt.Sprintf("/v1/projects/%s/devices?%s", url.PathEscape(a.projectID), q.Encode())
	if _, err := a.http.Do(ctx, "list devices", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	out := &provider.Page{Snapshots: make([]provider.Snapshot, 0, len(resp.Data))}
	for _, d := range resp.Data {
		if opts.UpdatedSince != nil {
			if updated, ok := utils.ToTime(d.UpdatedAt); ok && updated.Before(*opts.UpdatedSince) {
				continue
			}
		}
		snap := d.snapshot()
		snap.Partial = d.Metadata == nil
		out.Snapshots = append(out.Snapshots, snap)
	}

	if hasMore(resp, page, perPage) {
		out.NextCursor = strconv.Itoa(page + 1)
	}
	return out, nil
}

func hasMore(resp listResponse, page, perPage int) bool {
	if resp.Total > 0 {
		return page*perPage < resp.Total
	}
	return len(resp.Data) == perPage
}

// GetDeviceStatus fetches the full device resource.
func (a *Adapter) GetDeviceStatus(ctx context.Context, externalID string) (*provider.Snapshot, error) {
	path := fmt.Sprintf("/v1/projects/%s/devices/%s", url.PathEscape(a.projectID), url.PathEscape(externalID))

	var resp detailResponse
	if _, err := a.http.Do(ctx, "get device", http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	d := resp.Data
	if d == nil && resp.ID != "" {
		d = &resp.device
	}
	if d == nil {
		return nil, &provider.Error{Provider: Name, Op: "get device", Err: provider.ErrNotFound, Message: externalID}
	}
	snap := d.snapshot()
	return &snap, nil
}

// TestConnection reads the project resource.
func (a *Adapter) TestConnection(ctx context.Context) error {
	path := fmt.Sprintf("/v1/projects/%s", url.PathEscape(a.projectID))
	_, err := a.http.Do(ctx, "get project", http.MethodGet, path, nil, nil)
	return err
}

func (d device) snapshot() provider.Snapshot {
	snap := provider.Snapshot{
		ExternalID: d.ID,
		Name:       provider.String(d.Name),
		Status:     provider.NormalizeStatus(d.Status),
		CohortID:   provider.String(d.CohortID),
	}

	switch {
	case d.HardwareIDs != nil:
		snap.HardwareIDs = d.HardwareIDs
	case d.HardwareID != "":
		snap.HardwareIDs = []string{d.HardwareID}
	}

	snap.LastSeenOnline = parseTime(d.LastSeenOnline)
	if snap.LastSeenOnline == nil && snap.Status == provider.StatusOnline {
		snap.LastSeenOnline = parseTime(d.LastSeen)
	}
	snap.LastSeenOffline = parseTime(d.LastSeenOffline)

	snap.ParentExternalID = provider.String(d.ParentDeviceID)
	if snap.ParentExternalID == nil {
		snap.ParentExternalID = provider.String(d.GatewayID)
	}

	for _, tag := range d.Tags {
		key, value, found := strings.Cut(tag, ":")
		switch {
		case found && key == "type":
			snap.DeviceType = provider.String(value)
		case found && key == "gateway" && snap.ParentExternalID == nil:
			snap.ParentExternalID = provider.String(value)
		case !found && tag == "maintenance" && snap.Status == provider.StatusOnline:
			snap.Status = provider.StatusWarning
		}
	}

	if d.Metadata != nil {
		if snap.DeviceType == nil {
			snap.DeviceType = provider.String(utils.ToString(d.Metadata["device_type"]))
		}
		snap.FirmwareVersion = provider.String(utils.ToString(d.Metadata["firmware_version"]))
		snap.Metadata = d.Metadata
	}
	return snap
}

func parseTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, ok := utils.ToTime(raw)
	if !ok {
		return nil
	}
	return provider.Time(t)
}
