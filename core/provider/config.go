package provider

import (
	"fmt"
	"time"
)

// Config holds the limits applied to every external platform call.
type Config struct {
	// MaxPages caps how many inventory pages one sync run reads.
	MaxPages int `mapstructure:"max_pages" default:"100"`
	// PageSize is the page size hint passed to ListDevices.
	PageSize int `mapstructure:"page_size" default:"100"`
	// DetailWorkers is the worker-pool size for per-device detail fetches.
	DetailWorkers int `mapstructure:"detail_workers" default:"8"`
	// TimeoutSeconds bounds a single HTTP request to a platform.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// RetryMaxAttempts counts the first try.
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" default:"4"`
	// RetryInitialMillis is the first backoff interval.
	RetryInitialMillis int `mapstructure:"retry_initial_millis" default:"250"`
	// RetryMaxMillis caps a single backoff interval.
	RetryMaxMillis int `mapstructure:"retry_max_millis" default:"5000"`
	// RateLimitPerSecond is the sustained request rate per integration.
	RateLimitPerSecond float64 `mapstructure:"rate_limit_per_second" default:"10"`
	// RateLimitBurst is the request burst per integration.
	RateLimitBurst int `mapstructure:"rate_limit_burst" default:"5"`
	// BreakerFailureThreshold is the number of consecutive transient failures that opens the breaker.
	BreakerFailureThreshold int `mapstructure:"breaker_failure_threshold" default:"5"`
	// BreakerOpenSeconds is how long an open breaker rejects calls before probing.
	BreakerOpenSeconds int `mapstructure:"breaker_open_seconds" default:"30"`
	// StatusTimeoutSeconds bounds the live lookup of the device status endpoint.
	StatusTimeoutSeconds int `mapstructure:"status_timeout_seconds" default:"5"`
	// StatusCacheSeconds is how long a live status lookup is reused.
	StatusCacheSeconds int `mapstructure:"status_cache_seconds" default:"15"`
}

// Timeout returns the per-request timeout.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryPolicy returns the bounded exponential policy for adapter calls.
func (c Config) RetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     c.RetryMaxAttempts,
		InitialInterval: time.Duration(c.RetryInitialMillis) * time.Millisecond,
		MaxInterval:     time.Duration(c.RetryMaxMillis) * time.Millisecond,
	}
}

// BreakerConfig returns the circuit breaker settings.
func (c Config) BreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: c.BreakerFailureThreshold,
		SuccessThreshold: 1,
		OpenTimeout:      time.Duration(c.BreakerOpenSeconds) * time.Second,
	}
}

// Validate rejects limits that would stall or disable a sync run.
func (c Config) Validate() error {
	switch {
	case c.MaxPages < 1:
		return fmt.Errorf("%w: max_pages must be at least 1", ErrConfiguration)
	case c.PageSize < 1:
		return fmt.Errorf("%w: page_size must be at least 1", ErrConfiguration)
	case c.DetailWorkers < 1:
		return fmt.Errorf("%w: detail_workers must be at least 1", ErrConfiguration)
	case c.RetryMaxAttempts < 1:
		return fmt.Errorf("%w: retry_max_attempts must be at least 1", ErrConfiguration)
	case c.RetryMaxMillis < c.RetryInitialMillis:
		return fmt.Errorf("%w: retry_max_millis is below retry_initial_millis", ErrConfiguration)
	}
	return nil
}
