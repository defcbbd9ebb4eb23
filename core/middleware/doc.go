// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - Auth: authenticates the caller with an API key (plus X-Organization-ID) or an
//     HS256 bearer token, and exposes the organization and user ids to handlers.
//     Every sync, conflict and device route is organization scoped through it.
//   - RayID: assigns a request id (RayID), injecting it into the context and response
//     headers for tracing.
package middleware
