package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row is one held lease in the sync_locks table.
type Row struct {
	LockKey   string    `gorm:"column:lock_key;primaryKey;size:128"`
	Holder    string    `gorm:"column:holder;size:64;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null;index"`
}

// TableName overrides the default table name.
func (Row) TableName() string {
	return "sync_locks"
}

// Gorm is a Locker shared by every process using the same database.
type Gorm struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGorm creates a database-backed locker.
func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db, now: time.Now}
}

// Migrate creates the sync_locks table.
func (g *Gorm) Migrate() error {
	return g.db.AutoMigrate(&Row{})
}

// Acquire implements Locker. Expired rows are reclaimed before the insert.
func (g *Gorm) Acquire(ctx context.Context, key string, ttl time.Duration) (Lease, error) {
	now := g.now().UTC()
	db := g.db.WithContext(ctx)

	if err := db.Where("lock_key = ? AND expires_at <= ?", key, now).Delete(&Row{}).Error; err != nil {
		return nil, fmt.Errorf("failed to reclaim expired lock %s: %w", key, err)
	}

	row := Row{LockKey: key, Holder: uuid.NewString(), ExpiresAt: now.Add(ttl)}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, key)
	}

	return &gormLease{db: g.db, key: key, holder: row.Holder}, nil
}

type gormLease struct {
	db     *gorm.DB
	key    string
	holder string
}

func (l *gormLease) Key() string { return l.key }

// Release deletes the row only while this lease still owns it.
func (l *gormLease) Release(ctx context.Context) error {
	err := l.db.WithContext(ctx).
		Where("lock_key = ? AND holder = ?", l.key, l.holder).
		Delete(&Row{}).Error
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}
