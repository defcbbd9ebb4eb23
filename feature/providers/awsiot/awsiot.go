package awsiot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleet-sync/core/provider"
	"fleet-sync/core/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// Name is the provider name used in errors and logs.
const Name = "aws_iot"

const (
	signingService   = "iot"
	defaultIndexName = "AWS_Things"
	defaultQuery     = "thingName:*"
	maxResults       = 250
)

// Endpoint returns the AWS IoT control plane endpoint of region.
func Endpoint(region string) string {
	return fmt.Sprintf("https://iot.%s.amazonaws.com", region)
}

// Options configures one AWS account and region.
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Query narrows the fleet index search, e.g. "thingTypeName:sensor".
	Query string
}

// Adapter reads the AWS IoT fleet index.
type Adapter struct {
	http  *provider.HTTPClient
	query string
}

// New creates an adapter. client must be rooted at the regional IoT endpoint.
func New(opts Options, client *provider.HTTPClient) (*Adapter, error) {
	if opts.Region == "" {
		return nil, provider.Configuration("aws_iot: region is required")
	}
	if opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, provider.Configuration("aws_iot: access key id and secret access key are required")
	}

	creds := aws.Credentials{
		AccessKeyID:     opts.AccessKeyID,
		SecretAccessKey: opts.SecretAccessKey,
		SessionToken:    opts.SessionToken,
		Source:          "fleet-sync",
	}
	signer := v4.NewSigner()
	region := opts.Region

	client.Authorize = func(req *http.Request, body []byte) error {
		sum := sha256.Sum256(body)
		return signer.SignHTTP(req.Context(), creds, req, hex.EncodeToString(sum[:]), signingService, region, time.Now().UTC())
	}

	query := opts.Query
	if query == "" {
		query = defaultQuery
	}
	return &Adapter{http: client, query: query}, nil
}

func (a *Adapter) Name() string { return Name }

// Capabilities implements provider.Provider.
func (a *Adapter) Capabilities() provider.Capabilities {
	return provider.Capabilities{Telemetry: true, FirmwareInfo: true, RemoteCommands: true}
}

type searchRequest struct {
	IndexName   string `json:"indexName"`
	QueryString string `json:"queryString"`
	NextToken   string `json:"nextToken,omitempty"`
	MaxResults  int    `json:"maxResults,omitempty"`
}

type searchResponse struct {
	Things    []thing `json:"things"`
	NextToken string  `json:"nextToken"`
}

type thing struct {
	ThingName       string            `json:"thingName"`
	ThingID         string            `json:"thingId"`
	ThingTypeName   string            `json:"thingTypeName"`
	ThingGroupNames []string          `json:"thingGroupNames"`
	Attributes      map[string]string `json:"attributes"`
	Connectivity    *connectivity     `json:"connectivity"`
}

type connectivity struct {
	Connected        bool   `json:"connected"`
	Timestamp        int64  `json:"timestamp"`
	DisconnectReason string `json:"disconnectReason"`
}

func (a *Adapter) search(ctx context.Context, op, query, token string, limit int) (*searchResponse, error) {
	if limit <= 0 || limit > maxResults {
		limit = maxResults
	}
	req := searchRequest{IndexName: defaultIndexName, QueryString: query, NextToken: token, MaxResults: limit}

	var resp searchResponse
	if _, err := a.http.Do(ctx, op, http.MethodPost, "/indices/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListDevices reads one page of the fleet index. The cursor is the index nextToken.
// The fleet index has no modification time, so UpdatedSince is not applied.
func (a *Adapter) ListDevices(ctx context.Context, opts provider.ListOptions) (*provider.Page, error) {
	resp, err := a.search(ctx, "search index", a.query, opts.Cursor, opts.PageSize)
	if err != nil {
		return nil, err
	}

	page := &provider.Page{Snapshots: make([]provider.Snapshot, 0, len(resp.Things)), NextCursor: resp.NextToken}
	for _, t := range resp.Things {
		page.Snapshots = append(page.Snapshots, t.snapshot())
	}
	return page, nil
}

// GetDeviceStatus looks one thing up in the fleet index.
func (a *Adapter) GetDeviceStatus(ctx context.Context, externalID string) (*provider.Snapshot, error) {
	query := "thingName:" + escapeQuery(externalID)
	resp, err := a.search(ctx, "get thing", query, "", 1)
	if err != nil {
		return nil, err
	}
	for _, t := range resp.Things {
		if t.ThingName == externalID {
			snap := t.snapshot()
			return &snap, nil
		}
	}
	return nil, &provider.Error{Provider: Name, Op: "get thing", Err: provider.ErrNotFound, Message: externalID}
}

// TestConnection runs a one-result search.
func (a *Adapter) TestConnection(ctx context.Context) error {
	_, err := a.search(ctx, "test connection", a.query, "", 1)
	return err
}

func (t thing) snapshot() provider.Snapshot {
	snap := provider.Snapshot{
		ExternalID:       t.ThingName,
		Name:             provider.String(t.Attributes["name"]),
		DeviceType:       provider.String(t.ThingTypeName),
		ParentExternalID: provider.String(t.Attributes["gatewayId"]),
		FirmwareVersion:  provider.String(t.Attributes["firmwareVersion"]),
	}
	if serial := t.Attributes["serialNumber"]; serial != "" {
		snap.HardwareIDs = []string{serial}
	}
	if len(t.ThingGroupNames) > 0 {
		snap.CohortID = provider.String(t.ThingGroupNames[0])
	}

	if c := t.Connectivity; c != nil {
		seen, ok := utils.ToTime(c.Timestamp)
		if c.Connected {
			snap.Status = provider.StatusOnline
			if ok {
				snap.LastSeenOnline = provider.Time(seen)
			}
		} else {
			snap.Status = provider.StatusOffline
			if ok {
				snap.LastSeenOffline = provider.Time(seen)
			}
		}
	}

	if len(t.Attributes) > 0 {
		snap.Metadata = make(map[string]any, len(t.Attributes)+1)
		for k, v := range t.Attributes {
			snap.Metadata[k] = v
		}
	}
	if t.Connectivity != nil && t.Connectivity.DisconnectReason != "" {
		if snap.Metadata == nil {
			snap.Metadata = map[string]any{}
		}
		snap.Metadata["disconnect_reason"] = t.Connectivity.DisconnectReason
	}
	return snap
}

// escapeQuery quotes characters that have meaning in the fleet index query syntax.
func escapeQuery(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\:"*?()[]{} `, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
