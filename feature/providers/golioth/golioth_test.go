package golioth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleet-sync/core/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listPage1 = `{"data":[
 {"id":"dev-1","name":"Pump 1","hardware_id":"aa:01","status":"online","last_seen":"2024-05-01T10:00:00Z",
  "updated_at":"2024-05-01T10:00:00Z","tags":["type:pump","gateway:gw-1"],"metadata":{"firmware_version":"1.2.0","zone":"north"}},
 {"id":"dev-2","name":"Valve","status":"offline","updated_at":"2024-04-01T00:00:00Z"}
],"total":3,"page":1,"perPage":2}`

const listPage2 = `{"data":[
 {"id":"dev-3","name":"Gateway","status":"online","tags":["maintenance"],"hardwareIds":["gw:1","gw:2"],"updated_at":"2024-05-02T00:00:00Z","metadata":{}}
],"total":3,"page":2,"perPage":2}`

func newServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/projects/proj/devices", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("perPage"))
		switch r.URL.Query().Get("page") {
		case "1":
			_, _ = w.Write([]byte(listPage1))
		case "2":
			_, _ = w.Write([]byte(listPage2))
		default:
			_, _ = w.Write([]byte(`{"data":[]}`))
		}
	})
	mux.HandleFunc("/v1/projects/proj/devices/dev-2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"dev-2","name":"Valve","status":"offline","lastSeenOffline":"1714557600",
			"cohortId":"cohort-a","metadata":{"device_type":"valve"}}}`))
	})
	mux.HandleFunc("/v1/projects/proj/devices/bare", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"bare","status":"connected"}`))
	})
	mux.HandleFunc("/v1/projects/proj/devices/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/v1/projects/proj/devices/throttled", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})
	mux.HandleFunc("/v1/projects/proj", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"id":"proj"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newAdapter(t *testing.T, baseURL, key string) *Adapter {
	client := provider.NewHTTPClient(Name, baseURL, provider.Config{TimeoutSeconds: 5}, nil)
	a, err := New(Options{APIKey: key, ProjectID: "proj"}, client)
	require.NoError(t, err)
	return a
}

func TestListDevices(t *testing.T) {
	srv := newServer(t)
	a := newAdapter(t, srv.URL, "key-1")
	ctx := context.Background()

	page, err := a.ListDevices(ctx, provider.ListOptions{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page.Snapshots, 2)
	assert.Equal(t, "2", page.NextCursor)

	pump := page.Snapshots[0]
	assert.Equal(t, "dev-1", pump.ExternalID)
	assert.Equal(t, provider.StatusOnline, pump.Status)
	assert.Equal(t, "pump", *pump.DeviceType)
	assert.Equal(t, "gw-1", *pump.ParentExternalID)
	assert.Equal(t, "1.2.0", *pump.FirmwareVersion)
	assert.Equal(t, []string{"aa:01"}, pump.HardwareIDs)
	require.NotNil(t, pump.LastSeenOnline)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), *pump.LastSeenOnline)
	assert.False(t, pump.Partial)

	valve := page.Snapshots[1]
	assert.True(t, valve.Partial, "entries without metadata need a detail fetch")
	assert.Nil(t, valve.HardwareIDs)

	page, err = a.ListDevices(ctx, provider.ListOptions{PageSize: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Snapshots, 1)
	assert.Empty(t, page.NextCursor)
	assert.Equal(t, provider.StatusWarning, page.Snapshots[0].Status, "maintenance tag")
	assert.Equal(t, []string{"gw:1", "gw:2"}, page.Snapshots[0].HardwareIDs)

	_, err = a.ListDevices(ctx, provider.ListOptions{Cursor: "abc"})
	assert.Error(t, err)
}

func TestListDevicesUpdatedSince(t *testing.T) {
	srv := newServer(t)
	a := newAdapter(t, srv.URL, "key-1")

	since := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	page, err := a.ListDevices(context.Background(), provider.ListOptions{PageSize: 2, UpdatedSince: &since})
	require.NoError(t, err)
	require.Len(t, page.Snapshots, 1)
	assert.Equal(t, "dev-1", page.Snapshots[0].ExternalID)
	assert.Equal(t, "2", page.NextCursor)
}

func TestGetDeviceStatus(t *testing.T) {
	srv := newServer(t)
	a := newAdapter(t, srv.URL, "key-1")
	ctx := context.Background()

	snap, err := a.GetDeviceStatus(ctx, "dev-2")
	require.NoError(t, err)
	assert.Equal(t, provider.StatusOffline, snap.Status)
	assert.Equal(t, "valve", *snap.DeviceType)
	assert.Equal(t, "cohort-a", *snap.CohortID)
	require.NotNil(t, snap.LastSeenOffline)
	assert.Equal(t, int64(1714557600), snap.LastSeenOffline.Unix())

	snap, err = a.GetDeviceStatus(ctx, "bare")
	require.NoError(t, err)
	assert.Equal(t, provider.StatusOnline, snap.Status)

	_, err = a.GetDeviceStatus(ctx, "missing")
	assert.ErrorIs(t, err, provider.ErrNotFound)

	_, err = a.GetDeviceStatus(ctx, "throttled")
	assert.ErrorIs(t, err, provider.ErrRateLimited)
	assert.True(t, provider.IsTransient(err))

	assert.NoError(t, a.TestConnection(ctx))
}

func TestUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := newAdapter(t, srv.URL, "wrong")
	_, err := a.ListDevices(context.Background(), provider.ListOptions{})
	assert.ErrorIs(t, err, provider.ErrUnauthorized)
	assert.False(t, provider.IsTransient(err))
}

func TestNewRequiresCredentials(t *testing.T) {
	client := provider.NewHTTPClient(Name, DefaultBaseURL, provider.Config{}, nil)

	_, err := New(Options{ProjectID: "p"}, client)
	assert.ErrorIs(t, err, provider.ErrConfiguration)

	_, err = New(Options{APIKey: "k"}, client)
	assert.ErrorIs(t, err, provider.ErrConfiguration)
}
