// Package providers builds provider adapters from stored integrations.
// Each integration keeps its own rate limiter and circuit breaker for the
// lifetime of the process.
package providers
