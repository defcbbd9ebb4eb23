package runlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Locker.
type Memory struct {
	mu     sync.Mutex
	leases map[string]memoryEntry
	now    func() time.Time
}

type memoryEntry struct {
	holder    string
	expiresAt time.Time
}

// NewMemory creates an empty in-process locker.
func NewMemory() *Memory {
	return &Memory{leases: make(map[string]memoryEntry), now: time.Now}
}

// Acquire implements Locker. An expired lease is taken over.
func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if entry, ok := m.leases[key]; ok && now.Before(entry.expiresAt) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, key)
	}

	holder := uuid.NewString()
	m.leases[key] = memoryEntry{holder: holder, expiresAt: now.Add(ttl)}

	return &memoryLease{owner: m, key: key, holder: holder}, nil
}

type memoryLease struct {
	owner  *Memory
	key    string
	holder string
}

func (l *memoryLease) Key() string { return l.key }

func (l *memoryLease) Release(context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()

	if entry, ok := l.owner.leases[l.key]; ok && entry.holder == l.holder {
		delete(l.owner.leases, l.key)
	}
	return nil
}
