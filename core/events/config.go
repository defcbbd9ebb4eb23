package events

// Config holds configuration for the sync event publisher.
type Config struct {
	// NatsURL is the NATS server URL. Empty disables publishing.
	NatsURL string `mapstructure:"nats_url" default:""`
	// Subject is the subject sealed sync runs are published on.
	Subject string `mapstructure:"subject" default:"fleet.sync.completed"`
}
