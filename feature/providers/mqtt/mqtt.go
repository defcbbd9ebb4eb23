package mqtt

import (
	"context"
	"sort"
	"strings"
	"time"

	"fleet-sync/core/provider"
	"fleet-sync/core/utils"

	"github.com/goccy/go-json"
)

// Name is the provider name used in errors and logs.
const Name = "mqtt"

const (
	// DefaultTopicPrefix is prepended to "{deviceId}/status".
	DefaultTopicPrefix = "devices/"
	// DefaultWindow is how long a listing waits for retained messages.
	DefaultWindow = 2 * time.Second

	statusSuffix = "/status"
)

// Options configures the topic layout.
type Options struct {
	TopicPrefix string
	Window      time.Duration
}

// Adapter reads device inventory from retained status messages. Each device
// publishes a retained JSON document on {prefix}{deviceId}/status.
type Adapter struct {
	collector Collector
	prefix    string
	window    time.Duration
}

// New creates an adapter on top of collector.
func New(collector Collector, opts Options) *Adapter {
	prefix := opts.TopicPrefix
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Adapter{collector: collector, prefix: prefix, window: window}
}

func (a *Adapter) Name() string { return Name }

// Capabilities implements provider.Provider.
func (a *Adapter) Capabilities() provider.Capabilities {
	return provider.Capabilities{Telemetry: true}
}

// ListDevices returns the whole retained inventory as a single page.
func (a *Adapter) ListDevices(ctx context.Context, opts provider.ListOptions) (*provider.Page, error) {
	msgs, err := a.collector.Collect(ctx, a.prefix+"+"+statusSuffix, a.window)
	if err != nil {
		return nil, err
	}

	topics := make([]string, 0, len(msgs))
	for topic := range msgs {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	page := &provider.Page{Snapshots: make([]provider.Snapshot, 0, len(topics))}
	for _, topic := range topics {
		id, ok := a.deviceID(topic)
		if !ok || len(msgs[topic]) == 0 {
			continue
		}
		snap := ParseStatus(id, msgs[topic])
		if opts.UpdatedSince != nil && snap.LastSeenOnline != nil && snap.LastSeenOnline.Before(*opts.UpdatedSince) {
			continue
		}
		page.Snapshots = append(page.Snapshots, snap)
	}
	return page, nil
}

// GetDeviceStatus reads the retained status of one device.
func (a *Adapter) GetDeviceStatus(ctx context.Context, externalID string) (*provider.Snapshot, error) {
	topic := a.prefix + externalID + statusSuffix
	msgs, err := a.collector.Collect(ctx, topic, a.window)
	if err != nil {
		return nil, err
	}
	payload, ok := msgs[topic]
	if !ok || len(payload) == 0 {
		return nil, &provider.Error{Provider: Name, Op: "get status", Err: provider.ErrNotFound, Message: externalID}
	}
	snap := ParseStatus(externalID, payload)
	return &snap, nil
}

// TestConnection connects to the broker.
func (a *Adapter) TestConnection(ctx context.Context) error {
	return a.collector.Ping(ctx)
}

func (a *Adapter) deviceID(topic string) (string, bool) {
	if !strings.HasPrefix(topic, a.prefix) || !strings.HasSuffix(topic, statusSuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(topic, a.prefix), statusSuffix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

type statusMessage struct {
	Status      string         `json:"status"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Firmware    string         `json:"firmware"`
	HardwareIDs any            `json:"hardwareIds"`
	Cohort      string         `json:"cohort"`
	Parent      string         `json:"parent"`
	LastSeen    any            `json:"lastSeen"`
	Metadata    map[string]any `json:"metadata"`
}

// ParseStatus maps a status payload onto a snapshot. A payload that is not a
// JSON object is read as a bare status word ("online", "offline").
func ParseStatus(externalID string, payload []byte) provider.Snapshot {
	snap := provider.Snapshot{ExternalID: externalID}

	var msg statusMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		snap.Status = provider.NormalizeStatus(strings.Trim(string(payload), `"`))
		return snap
	}

	snap.Status = provider.NormalizeStatus(msg.Status)
	snap.Name = provider.String(msg.Name)
	snap.DeviceType = provider.String(msg.Type)
	snap.FirmwareVersion = provider.String(msg.Firmware)
	snap.CohortID = provider.String(msg.Cohort)
	snap.ParentExternalID = provider.String(msg.Parent)
	snap.HardwareIDs = utils.ToStringSlice(msg.HardwareIDs)
	snap.Metadata = msg.Metadata

	if seen, ok := utils.ToTime(msg.LastSeen); ok {
		if snap.Status == provider.StatusOffline {
			snap.LastSeenOffline = provider.Time(seen)
		} else {
			snap.LastSeenOnline = provider.Time(seen)
		}
	}
	return snap
}
