package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

type fakeFeature struct {
	name    string
	enabled bool
	err     error
	loaded  bool
}

func (f *fakeFeature) Name() string    { return f.name }
func (f *fakeFeature) IsEnabled() bool { return f.enabled }
func (f *fakeFeature) Load(app fiber.Router) error {
	f.loaded = true
	return f.err
}

func TestManager_LoadAll(t *testing.T) {
	on := &fakeFeature{name: "sync", enabled: true}
	off := &fakeFeature{name: "devices", enabled: false}

	mgr := NewManager()
	mgr.Register(on)
	mgr.Register(off)

	assert.NoError(t, mgr.LoadAll(fiber.New()))
	assert.True(t, on.loaded)
	assert.False(t, off.loaded)
	assert.Len(t, mgr.Features(), 2)
}

func TestManager_LoadAllError(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&fakeFeature{name: "broken", enabled: true, err: errors.New("boom")})

	err := mgr.LoadAll(fiber.New())
	assert.EqualError(t, err, "failed to load feature broken: boom")
}

func TestManager_DuplicateRegister(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&fakeFeature{name: "sync"})
	assert.Panics(t, func() { mgr.Register(&fakeFeature{name: "sync"}) })
}
