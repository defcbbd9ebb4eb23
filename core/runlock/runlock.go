package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrAlreadyRunning is returned when another holder owns a live lease on the key.
var ErrAlreadyRunning = errors.New("sync already running")

// Lease is a held lock. Release is idempotent.
type Lease interface {
	Key() string
	Release(ctx context.Context) error
}

// Locker grants exclusive, time-bounded leases per key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error)
}

// New builds the locker selected by cfg. The gorm backend requires db.
func New(cfg Config, db *gorm.DB) (Locker, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendGorm:
		if db == nil {
			return nil, errors.New("gorm lock backend requires a database connection")
		}
		return NewGorm(db), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}
