// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines the
// configuration structure and its validation: the listen port and the credentials
// the auth middleware accepts (a static API key, an HS256 JWT secret, or both).
package server
