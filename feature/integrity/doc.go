// Package integrity provides health checks for the infrastructure fleet-sync depends on.
//
// # Checks Provided
//
//   - Schema: Validates that the canonical store has every table and column the models
//     define, including the run lock table.
//   - Archive: Checks that the sync report bucket and its runs/ folder exist and counts
//     the archived reports. Supports fixing a missing bucket or folder.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/schema : Runs the schema check.
//   - GET /integrity/archive : Runs the archive check (supports ?fix=true).
package integrity
