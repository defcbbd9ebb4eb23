package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BreakerState is the state of a CircuitBreaker.
type BreakerState int

const (
	// BreakerClosed lets calls through.
	BreakerClosed BreakerState = iota
	// BreakerOpen rejects calls until OpenTimeout elapses.
	BreakerOpen
	// BreakerHalfOpen lets a trial call through.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds the circuit breaker thresholds.
type BreakerConfig struct {
	// FailureThreshold consecutive transient failures open the circuit. Zero disables the breaker.
	FailureThreshold int
	// SuccessThreshold successes in half-open close it again.
	SuccessThreshold int
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
}

// CircuitBreaker stops hammering a platform that keeps failing.
// Only transient failures count; NotFound and Unauthorized answers prove the platform is up.
type CircuitBreaker struct {
	name   string
	config BreakerConfig
	logger *zap.Logger
	now    func() time.Time

	mu           sync.Mutex
	state        BreakerState
	failureCount int
	successCount int
	openedAt     time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(name string, config BreakerConfig, logger *zap.Logger) *CircuitBreaker {
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	return &CircuitBreaker{
		name:   name,
		config: config,
		logger: logger,
		now:    time.Now,
		state:  BreakerClosed,
	}
}

// Execute runs fn through the breaker.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return &Error{Provider: cb.name, Op: "call", Err: ErrUnavailable, Message: "circuit breaker open"}
	}
	err := fn()
	cb.record(err)
	return err
}

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) allow() bool {
	if cb.config.FailureThreshold <= 0 {
		return true
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case BreakerOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.OpenTimeout {
			return false
		}
		cb.state = BreakerHalfOpen
		cb.successCount = 0
		cb.logger.Info("Circuit breaker half-open", zap.String("circuit_breaker", cb.name))
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) record(err error) {
	if cb.config.FailureThreshold <= 0 {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if IsTransient(err) {
		cb.failureCount++
		switch cb.state {
		case BreakerClosed:
			if cb.failureCount >= cb.config.FailureThreshold {
				cb.open()
			}
		case BreakerHalfOpen:
			cb.open()
		}
		return
	}

	switch cb.state {
	case BreakerHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.state = BreakerClosed
			cb.failureCount = 0
			cb.logger.Info("Circuit breaker closed", zap.String("circuit_breaker", cb.name))
		}
	case BreakerClosed:
		cb.failureCount = 0
	}
}

func (cb *CircuitBreaker) open() {
	cb.state = BreakerOpen
	cb.openedAt = cb.now()
	cb.logger.Warn("Circuit breaker opened",
		zap.String("circuit_breaker", cb.name),
		zap.Int("failure_count", cb.failureCount))
}

// Guard wraps p so every remote call goes through cb.
func Guard(p Provider, cb *CircuitBreaker) Provider {
	return &guarded{inner: p, cb: cb}
}

type guarded struct {
	inner Provider
	cb    *CircuitBreaker
}

func (g *guarded) Name() string { return g.inner.Name() }

func (g *guarded) Capabilities() Capabilities { return g.inner.Capabilities() }

func (g *guarded) ListDevices(ctx context.Context, opts ListOptions) (*Page, error) {
	var page *Page
	err := g.cb.Execute(func() error {
		var err error
		page, err = g.inner.ListDevices(ctx, opts)
		return err
	})
	return page, err
}

func (g *guarded) GetDeviceStatus(ctx context.Context, externalID string) (*Snapshot, error) {
	var snap *Snapshot
	err := g.cb.Execute(func() error {
		var err error
		snap, err = g.inner.GetDeviceStatus(ctx, externalID)
		return err
	})
	return snap, err
}

func (g *guarded) TestConnection(ctx context.Context) error {
	return g.cb.Execute(func() error { return g.inner.TestConnection(ctx) })
}

// String helps log lines that print the wrapped adapter.
func (g *guarded) String() string {
	return fmt.Sprintf("%s(breaker=%s)", g.inner.Name(), g.cb.State())
}
