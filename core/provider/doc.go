// Package provider defines the contract between the sync engine and external
// IoT device-management platforms.
//
// An adapter turns one platform's wire API into Snapshots: provider-normalized,
// transient views of remote devices. Optional fields a platform does not report
// stay nil; they are never errors. Status vocabularies are folded into the five
// canonical values by NormalizeStatus.
//
// # Failure kinds
//
// Adapters signal ErrNotFound, ErrUnauthorized, ErrRateLimited and ErrUnavailable,
// usually wrapped in *Error with the HTTP status and platform message. IsTransient
// selects the kinds Retry backs off on. ErrConfiguration is reserved for adapters
// that cannot be built at all.
//
// # Call discipline
//
//   - HTTPClient applies a per-integration token bucket (x/time/rate) and a per-request timeout.
//   - Retry wraps a call in bounded exponential backoff (cenkalti/backoff).
//   - Guard puts an adapter behind a CircuitBreaker that opens after consecutive
//     transient failures.
package provider
