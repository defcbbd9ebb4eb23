package devices

import (
	"context"
	"sync"
	"testing"
	"time"

	"fleet-sync/core/provider"
	"fleet-sync/feature/sync/models"
	"fleet-sync/feature/sync/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubProvider struct {
	mu       sync.Mutex
	calls    int
	snapshot *provider.Snapshot
	err      error
}

func (p *stubProvider) Name() string                         { return "stub" }
func (p *stubProvider) Capabilities() provider.Capabilities  { return provider.Capabilities{} }
func (p *stubProvider) TestConnection(context.Context) error { return nil }

func (p *stubProvider) ListDevices(context.Context, provider.ListOptions) (*provider.Page, error) {
	return &provider.Page{}, nil
}

func (p *stubProvider) GetDeviceStatus(_ context.Context, id string) (*provider.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := *p.snapshot
	out.ExternalID = id
	return &out, nil
}

type stubBuilder struct {
	p   provider.Provider
	err error
}

func (b *stubBuilder) Build(context.Context, *models.Integration) (provider.Provider, error) {
	return b.p, b.err
}

func setupService(t *testing.T, p *stubProvider, log *zap.Logger) (*Service, *store.Store, *stubBuilder) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	st := store.New(db)
	require.NoError(t, st.AutoMigrate())
	ctx := context.Background()
	require.NoError(t, st.CreateIntegration(ctx, &models.Integration{
		ID: "int-1", OrganizationID: "org-1", Name: "Fleet", ProviderType: models.ProviderGolioth, Enabled: true,
	}))
	integrationID := "int-1"
	require.NoError(t, st.CreateDevice(ctx, &models.Device{
		ID: "d-1", OrganizationID: "org-1", IntegrationID: &integrationID, ExternalDeviceID: "A", Name: "Alpha", Status: provider.StatusOffline,
	}))
	require.NoError(t, st.CreateDevice(ctx, &models.Device{
		ID: "d-2", OrganizationID: "org-1", ExternalDeviceID: "manual", Name: "Manual", Status: provider.StatusUnknown,
	}))

	builder := &stubBuilder{p: p}
	svc := NewService(st, builder, provider.Config{StatusTimeoutSeconds: 1, StatusCacheSeconds: 60}, log)
	return svc, st, builder
}

func TestStatus_Live(t *testing.T) {
	name := "Alpha"
	p := &stubProvider{snapshot: &provider.Snapshot{Name: &name, Status: provider.StatusOnline}}
	svc, _, _ := setupService(t, p, zap.NewNop())
	ctx := context.Background()

	status, err := svc.Status(ctx, "org-1", "d-1")
	require.NoError(t, err)
	assert.Equal(t, provider.StatusOffline, status.Device.Status)
	require.NotNil(t, status.Live)
	assert.Equal(t, provider.StatusOnline, status.Live.Status)
	assert.False(t, status.Live.Cached)
	assert.Empty(t, status.LiveError)

	status, err = svc.Status(ctx, "org-1", "d-1")
	require.NoError(t, err)
	assert.True(t, status.Live.Cached)
	assert.Equal(t, 1, p.calls, "one provider call per lookup, reused from cache")
}

func TestStatus_NotFound(t *testing.T) {
	svc, _, _ := setupService(t, &stubProvider{snapshot: &provider.Snapshot{}}, zap.NewNop())

	_, err := svc.Status(context.Background(), "org-1", "missing")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	_, err = svc.Status(context.Background(), "org-2", "d-1")
	assert.ErrorIs(t, err, ErrDeviceNotFound, "devices of other organizations are invisible")
}

func TestStatus_LiveFailureDegrades(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	p := &stubProvider{err: &provider.Error{Provider: "stub", Op: "get", Err: provider.ErrUnavailable}}
	svc, _, _ := setupService(t, p, zap.New(core))

	status, err := svc.Status(context.Background(), "org-1", "d-1")
	require.NoError(t, err)
	assert.Nil(t, status.Live)
	assert.Contains(t, status.LiveError, "unavailable")
	assert.Equal(t, "Alpha", status.Device.Name)
	assert.Equal(t, 1, logs.FilterMessage("Live status lookup failed").Len())

	p.err = nil
	p.snapshot = &provider.Snapshot{Status: provider.StatusOnline}
	status, err = svc.Status(context.Background(), "org-1", "d-1")
	require.NoError(t, err)
	require.NotNil(t, status.Live, "failures are not cached")
}

func TestStatus_NoIntegration(t *testing.T) {
	p := &stubProvider{snapshot: &provider.Snapshot{}}
	svc, _, _ := setupService(t, p, zap.NewNop())

	status, err := svc.Status(context.Background(), "org-1", "d-2")
	require.NoError(t, err)
	assert.Nil(t, status.Live)
	assert.NotEmpty(t, status.LiveError)
	assert.Equal(t, 0, p.calls)
}

func TestStatus_BuilderError(t *testing.T) {
	p := &stubProvider{snapshot: &provider.Snapshot{}}
	svc, _, builder := setupService(t, p, zap.NewNop())
	builder.err = provider.Configuration("credential %q is missing", "api_key")

	status, err := svc.Status(context.Background(), "org-1", "d-1")
	require.NoError(t, err)
	assert.Nil(t, status.Live)
	assert.Contains(t, status.LiveError, "api_key")
}

func TestStatus_Timeout(t *testing.T) {
	svc, _, builder := setupService(t, nil, zap.NewNop())
	builder.p = &slowProvider{}
	svc.timeout = 20 * time.Millisecond

	status, err := svc.Status(context.Background(), "org-1", "d-1")
	require.NoError(t, err)
	assert.Nil(t, status.Live)
	assert.Contains(t, status.LiveError, context.DeadlineExceeded.Error())
}

type slowProvider struct{ stubProvider }

func (p *slowProvider) GetDeviceStatus(ctx context.Context, _ string) (*provider.Snapshot, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
