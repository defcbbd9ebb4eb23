package server

import "errors"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key accepted in the X-API-Key header.
	ApiKey string `mapstructure:"api_key" default:""`
	// JWTSecret is the HS256 secret for bearer tokens. Empty disables bearer auth.
	JWTSecret string `mapstructure:"jwt_secret" default:""`
}

var (
	ErrMissingPort = errors.New("server port is required")
	ErrNoAuth      = errors.New("either api_key or jwt_secret must be configured")
)

// Validate checks that the server can start with an authenticated API.
func (c Config) Validate() error {
	if c.Port == "" {
		return ErrMissingPort
	}
	if c.ApiKey == "" && c.JWTSecret == "" {
		return ErrNoAuth
	}
	return nil
}
