package mqtt

import (
	"context"
	"strings"
	"testing"
	"time"

	"fleet-sync/core/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollector struct {
	retained map[string][]byte
	filters  []string
	err      error
}

func (f *fakeCollector) Collect(_ context.Context, filter string, _ time.Duration) (map[string][]byte, error) {
	f.filters = append(f.filters, filter)
	if f.err != nil {
		return nil, f.err
	}
	out := map[string][]byte{}
	for topic, payload := range f.retained {
		if filter == topic || strings.HasSuffix(filter, "+/status") {
			out[topic] = payload
		}
	}
	return out, nil
}

func (f *fakeCollector) Ping(context.Context) error { return f.err }

func TestParseStatus(t *testing.T) {
	snap := ParseStatus("dev-1", []byte(`{
		"status":"connected","name":"Pump","type":"pump","firmware":"3.1",
		"hardwareIds":["m1","m2"],"cohort":"stable","parent":"gw-1",
		"lastSeen":1714557600,"metadata":{"site":"north"}}`))

	assert.Equal(t, "dev-1", snap.ExternalID)
	assert.Equal(t, provider.StatusOnline, snap.Status)
	assert.Equal(t, "Pump", *snap.Name)
	assert.Equal(t, "pump", *snap.DeviceType)
	assert.Equal(t, "3.1", *snap.FirmwareVersion)
	assert.Equal(t, "stable", *snap.CohortID)
	assert.Equal(t, "gw-1", *snap.ParentExternalID)
	assert.Equal(t, []string{"m1", "m2"}, snap.HardwareIDs)
	assert.Equal(t, int64(1714557600), snap.LastSeenOnline.Unix())
	assert.Equal(t, "north", snap.Metadata["site"])

	offline := ParseStatus("dev-2", []byte(`{"status":"offline","lastSeen":"2024-05-01T10:00:00Z"}`))
	assert.Equal(t, provider.StatusOffline, offline.Status)
	assert.Nil(t, offline.LastSeenOnline)
	assert.NotNil(t, offline.LastSeenOffline)
	assert.Nil(t, offline.Name)

	assert.Equal(t, provider.StatusOffline, ParseStatus("d", []byte("offline")).Status)
	assert.Equal(t, provider.StatusOnline, ParseStatus("d", []byte(`"online"`)).Status)
}

func TestListDevices(t *testing.T) {
	fc := &fakeCollector{retained: map[string][]byte{
		"fleet/b/status":       []byte(`{"status":"online"}`),
		"fleet/a/status":       []byte(`{"status":"offline"}`),
		"fleet/a/b/status":     []byte(`{"status":"online"}`),
		"fleet/cleared/status": {},
		"elsewhere/c/status":   []byte(`{"status":"online"}`),
		"fleet/old/status":     []byte(`{"status":"online","lastSeen":"2020-01-01T00:00:00Z"}`),
	}}
	a := New(fc, Options{TopicPrefix: "fleet"})

	page, err := a.ListDevices(context.Background(), provider.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fleet/+/status"}, fc.filters)
	assert.Empty(t, page.NextCursor)

	var ids []string
	for _, s := range page.Snapshots {
		ids = append(ids, s.ExternalID)
	}
	assert.Equal(t, []string{"a", "b", "old"}, ids)

	since := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	page, err = a.ListDevices(context.Background(), provider.ListOptions{UpdatedSince: &since})
	require.NoError(t, err)
	assert.Len(t, page.Snapshots, 2)
}

func TestGetDeviceStatus(t *testing.T) {
	fc := &fakeCollector{retained: map[string][]byte{
		"devices/dev-1/status": []byte(`{"status":"warning"}`),
	}}
	a := New(fc, Options{})

	snap, err := a.GetDeviceStatus(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, provider.StatusWarning, snap.Status)

	_, err = a.GetDeviceStatus(context.Background(), "dev-2")
	assert.ErrorIs(t, err, provider.ErrNotFound)
}

func TestCollectorErrors(t *testing.T) {
	fc := &fakeCollector{err: classify("connect", assert.AnError)}
	a := New(fc, Options{})

	_, err := a.ListDevices(context.Background(), provider.ListOptions{})
	assert.ErrorIs(t, err, provider.ErrUnavailable)
	assert.True(t, provider.IsTransient(err))

	fc.err = classify("connect", errNotAuthorized{})
	assert.ErrorIs(t, a.TestConnection(context.Background()), provider.ErrUnauthorized)
}

type errNotAuthorized struct{}

func (errNotAuthorized) Error() string { return "not Authorized" }

func TestBrokerClientOptions(t *testing.T) {
	b := NewBroker(BrokerOptions{URL: "tcp://localhost:1883", ClientID: "fleet-sync-int-1", Username: "svc", Password: "secret"})

	first := b.clientOptions()
	second := b.clientOptions()

	assert.True(t, strings.HasPrefix(first.ClientID, "fleet-sync-int-1-"))
	assert.NotEqual(t, first.ClientID, second.ClientID, "every session has its own client id")
	assert.Equal(t, "svc", first.Username)
	assert.True(t, first.CleanSession)
	assert.False(t, first.AutoReconnect)
	require.Len(t, first.Servers, 1)
	assert.Equal(t, "localhost:1883", first.Servers[0].Host)
}
