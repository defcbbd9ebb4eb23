package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fleet-sync/core/events"
	"fleet-sync/core/provider"
	"fleet-sync/core/runlock"
	"fleet-sync/feature/sync/models"
	"fleet-sync/feature/sync/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testOrg         = "org-1"
	testIntegration = "int-1"
)

// fakeProvider serves a fixed inventory split into pages.
type fakeProvider struct {
	mu        sync.Mutex
	pages     [][]provider.Snapshot
	details   map[string]*provider.Snapshot
	listErrs  []error
	listCalls int
	since     []*time.Time
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Capabilities() provider.Capabilities { return provider.Capabilities{} }

func (f *fakeProvider) TestConnection(context.Context) error { return nil }

func (f *fakeProvider) ListDevices(_ context.Context, opts provider.ListOptions) (*provider.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.since = append(f.since, opts.UpdatedSince)
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	idx := 0
	if opts.Cursor != "" {
		idx = int(opts.Cursor[0] - '0')
	}
	page := &provider.Page{}
	if idx < len(f.pages) {
		page.Snapshots = append(page.Snapshots, f.pages[idx]...)
	}
	if idx+1 < len(f.pages) {
		page.NextCursor = string(rune('0' + idx + 1))
	}
	return page, nil
}

func (f *fakeProvider) GetDeviceStatus(_ context.Context, id string) (*provider.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, &provider.Error{Provider: "fake", Op: "get", Err: provider.ErrNotFound, Message: id}
}

func (f *fakeProvider) setInventory(snapshots ...provider.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = [][]provider.Snapshot{snapshots}
}

type fakeBuilder struct {
	p   provider.Provider
	err error
}

func (b *fakeBuilder) Build(context.Context, *models.Integration) (provider.Provider, error) {
	return b.p, b.err
}

type recordingPublisher struct {
	events []events.SyncCompleted
}

func (r *recordingPublisher) PublishSyncCompleted(_ context.Context, e events.SyncCompleted) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) Close() {}

type fixture struct {
	store     *store.Store
	provider  *fakeProvider
	builder   *fakeBuilder
	locker    *runlock.Memory
	publisher *recordingPublisher
	service   *Service
}

func setup(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	st := store.New(db)
	require.NoError(t, st.AutoMigrate())
	require.NoError(t, st.CreateIntegration(context.Background(), &models.Integration{
		ID: testIntegration, OrganizationID: testOrg, Name: "Fleet", ProviderType: models.ProviderGolioth, Enabled: true,
	}))

	f := &fixture{
		store:     st,
		provider:  &fakeProvider{details: map[string]*provider.Snapshot{}},
		locker:    runlock.NewMemory(),
		publisher: &recordingPublisher{},
	}
	f.builder = &fakeBuilder{p: f.provider}
	f.service = NewService(Deps{
		Store:     st,
		Providers: f.builder,
		Locker:    f.locker,
		Publisher: f.publisher,
		Config: provider.Config{
			MaxPages:           10,
			PageSize:           100,
			DetailWorkers:      4,
			RetryMaxAttempts:   3,
			RetryInitialMillis: 1,
			RetryMaxMillis:     2,
		},
		LockTTL: time.Minute,
		Logger:  zap.NewNop(),
	})
	return f
}

func (f *fixture) seedDevice(t *testing.T, d *models.Device, baseline map[string]any) {
	integrationID := testIntegration
	d.OrganizationID = testOrg
	d.IntegrationID = &integrationID
	if baseline != nil {
		require.NoError(t, d.SetBaseline(baseline))
	}
	require.NoError(t, f.store.CreateDevice(context.Background(), d))
}

func (f *fixture) device(t *testing.T, externalID string) *models.Device {
	devices, err := f.store.ListDevices(context.Background(), testIntegration)
	require.NoError(t, err)
	for _, d := range devices {
		if d.ExternalDeviceID == externalID {
			return d
		}
	}
	t.Fatalf("device %s not found", externalID)
	return nil
}

func (f *fixture) count(t *testing.T, model any) int64 {
	var n int64
	require.NoError(t, f.store.DB().Model(model).Count(&n).Error)
	return n
}

func str(s string) *string { return &s }

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

var errBoom = errors.New("boom")
