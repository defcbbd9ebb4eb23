package runlock

import "time"

const (
	BackendMemory = "memory"
	BackendGorm   = "gorm"
)

// Config holds configuration for the per-integration run lock.
type Config struct {
	// Backend is "memory" (single process) or "gorm" (shared through the database).
	Backend string `mapstructure:"backend" default:"memory"`
	// TTLSeconds bounds how long a crashed run can block the next one.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"900"`
}

// TTL returns the lease lifetime.
func (c Config) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}
