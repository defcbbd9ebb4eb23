package azureiot

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fleet-sync/core/provider"
	"fleet-sync/core/utils"
)

// Name is the provider name used in errors and logs.
const Name = "azure_iot"

const (
	apiVersion   = "2021-04-12"
	tokenTTL     = time.Hour
	maxItemCount = 1000

	headerContinuation = "x-ms-continuation"
	headerMaxItems     = "x-ms-max-item-count"
)

// Adapter reads device twins from an IoT Hub.
type Adapter struct {
	http *provider.HTTPClient
	now  func() time.Time
}

// New creates an adapter for the hub named by cs. client must be rooted at cs.Endpoint().
func New(cs ConnectionString, client *provider.HTTPClient) *Adapter {
	a := &Adapter{http: client, now: time.Now}
	client.Authorize = func(req *http.Request, _ []byte) error {
		req.Header.Set("Authorization", cs.Token(a.now().Add(tokenTTL)))
		return nil
	}
	return a
}

func (a *Adapter) Name() string { return Name }

// Capabilities implements provider.Provider.
func (a *Adapter) Capabilities() provider.Capabilities {
	return provider.Capabilities{Telemetry: true, FirmwareInfo: true, RemoteCommands: true}
}

type twin struct {
	DeviceID         string         `json:"deviceId"`
	Status           string         `json:"status"`
	ConnectionState  string         `json:"connectionState"`
	LastActivityTime string         `json:"lastActivityTime"`
	Tags             map[string]any `json:"tags"`
	Properties       struct {
		Reported map[string]any `json:"reported"`
	} `json:"properties"`
	Capabilities struct {
		IotEdge bool `json:"iotEdge"`
	} `json:"capabilities"`
	ParentScopes []string `json:"parentScopes"`
}

type queryRequest struct {
	Query string `json:"query"`
}

// ListDevices runs the twin query. The cursor is the x-ms-continuation token.
func (a *Adapter) ListDevices(ctx context.Context, opts provider.ListOptions) (*provider.Page, error) {
	query := "SELECT * FROM devices"
	if opts.UpdatedSince != nil {
		query += " WHERE lastActivityTime > '" + opts.UpdatedSince.UTC().Format(time.RFC3339) + "'"
	}

	size := opts.PageSize
	if size <= 0 || size > maxItemCount {
		size = maxItemCount
	}
	header := http.Header{}
	header.Set(headerMaxItems, strconv.Itoa(size))
	if opts.Cursor != "" {
		header.Set(headerContinuation, opts.Cursor)
	}

	var twins []twin
	resp, err := a.http.DoWithHeader(ctx, "query twins", http.MethodPost, "/devices/query?api-version="+apiVersion, header, queryRequest{Query: query}, &twins)
	if err != nil {
		return nil, err
	}

	page := &provider.Page{Snapshots: make([]provider.Snapshot, 0, len(twins)), NextCursor: resp.Get(headerContinuation)}
	for _, t := range twins {
		page.Snapshots = append(page.Snapshots, t.snapshot())
	}
	return page, nil
}

// GetDeviceStatus reads one device twin.
func (a *Adapter) GetDeviceStatus(ctx context.Context, externalID string) (*provider.Snapshot, error) {
	var t twin
	path := "/twins/" + url.PathEscape(externalID) + "?api-version=" + apiVersion
	if _, err := a.http.Do(ctx, "get twin", http.MethodGet, path, nil, &t); err != nil {
		return nil, err
	}
	if t.DeviceID == "" {
		return nil, &provider.Error{Provider: Name, Op: "get twin", Err: provider.ErrNotFound, Message: externalID}
	}
	snap := t.snapshot()
	return &snap, nil
}

// TestConnection reads the hub statistics.
func (a *Adapter) TestConnection(ctx context.Context) error {
	_, err := a.http.Do(ctx, "test connection", http.MethodGet, "/statistics/devices?api-version="+apiVersion, nil, nil)
	return err
}

var edgeScope = regexp.MustCompile(`^ms-azure-iot-edge://(.+)-\d+$`)

func (t twin) snapshot() provider.Snapshot {
	snap := provider.Snapshot{
		ExternalID: t.DeviceID,
		Name:       provider.String(utils.ToString(t.Tags["name"])),
		CohortID:   provider.String(utils.ToString(t.Tags["cohort"])),
	}

	deviceType := utils.ToString(t.Tags["deviceType"])
	if deviceType == "" && t.Capabilities.IotEdge {
		deviceType = "edge_gateway"
	}
	snap.DeviceType = provider.String(deviceType)

	if ids := utils.ToStringSlice(t.Tags["hardwareIds"]); len(ids) > 0 {
		snap.HardwareIDs = ids
	} else if serial := utils.ToString(t.Tags["serialNumber"]); serial != "" {
		snap.HardwareIDs = []string{serial}
	}

	for _, scope := range t.ParentScopes {
		if m := edgeScope.FindStringSubmatch(scope); m != nil {
			snap.ParentExternalID = provider.String(m[1])
			break
		}
	}

	if fw := utils.ToString(t.Properties.Reported["firmwareVersion"]); fw != "" {
		snap.FirmwareVersion = provider.String(fw)
	}

	connected := strings.EqualFold(t.ConnectionState, "Connected")
	switch {
	case strings.EqualFold(t.Status, "disabled"):
		snap.Status = provider.StatusOffline
	case t.ConnectionState != "":
		snap.Status = provider.NormalizeStatus(t.ConnectionState)
	}
	if seen, ok := utils.ToTime(t.LastActivityTime); ok {
		if connected {
			snap.LastSeenOnline = provider.Time(seen)
		} else {
			snap.LastSeenOffline = provider.Time(seen)
		}
	}

	if len(t.Tags) > 0 {
		snap.Metadata = make(map[string]any, len(t.Tags))
		for k, v := range t.Tags {
			snap.Metadata[k] = v
		}
	}
	return snap
}
