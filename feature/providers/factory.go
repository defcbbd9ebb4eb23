package providers

import (
	"context"
	"sync"

	"fleet-sync/core/provider"
	"fleet-sync/core/secrets"
	"fleet-sync/feature/providers/awsiot"
	"fleet-sync/feature/providers/azureiot"
	"fleet-sync/feature/providers/golioth"
	"fleet-sync/feature/providers/mqtt"
	"fleet-sync/feature/sync/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Builder turns an integration into a ready adapter.
type Builder interface {
	Build(ctx context.Context, integration *models.Integration) (provider.Provider, error)
}

// Factory builds provider adapters from integrations. Rate limiters and circuit
// breakers are kept per integration so they survive across sync runs.
type Factory struct {
	secrets secrets.Resolver
	config  provider.Config
	logger  *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	breakers map[string]*provider.CircuitBreaker
}

// NewFactory creates a factory.
func NewFactory(resolver secrets.Resolver, cfg provider.Config, logger *zap.Logger) *Factory {
	return &Factory{
		secrets:  resolver,
		config:   cfg,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
		breakers: make(map[string]*provider.CircuitBreaker),
	}
}

// Build returns the adapter for integration wrapped in its circuit breaker.
// Unknown or unsupported provider types and missing credentials yield provider.ErrConfiguration.
func (f *Factory) Build(ctx context.Context, integration *models.Integration) (provider.Provider, error) {
	inner, err := f.build(ctx, integration)
	if err != nil {
		return nil, err
	}
	return provider.Guard(inner, f.breaker(integration)), nil
}

func (f *Factory) build(ctx context.Context, integration *models.Integration) (provider.Provider, error) {
	switch integration.ProviderType {
	case models.ProviderGolioth:
		creds, err := f.credentials(ctx, integration)
		if err != nil {
			return nil, err
		}
		values, err := creds.Require("api_key")
		if err != nil {
			return nil, err
		}
		project := integration.ProjectID
		if project == "" {
			project = integration.Setting("project_id")
		}
		client := f.client(integration, golioth.Name, orDefault(integration.BaseURL, golioth.DefaultBaseURL))
		return golioth.New(golioth.Options{APIKey: values[0], ProjectID: project}, client)

	case models.ProviderAWSIoT:
		creds, err := f.credentials(ctx, integration)
		if err != nil {
			return nil, err
		}
		values, err := creds.Require("access_key_id", "secret_access_key")
		if err != nil {
			return nil, err
		}
		region := integration.Setting("region")
		if region == "" {
			return nil, provider.Configuration("aws_iot: setting %q is required", "region")
		}
		client := f.client(integration, awsiot.Name, orDefault(integration.BaseURL, awsiot.Endpoint(region)))
		return awsiot.New(awsiot.Options{
			Region:          region,
			AccessKeyID:     values[0],
			SecretAccessKey: values[1],
			SessionToken:    creds.Get("session_token"),
			Query:           integration.Setting("query"),
		}, client)

	case models.ProviderAzureIoT:
		creds, err := f.credentials(ctx, integration)
		if err != nil {
			return nil, err
		}
		values, err := creds.Require("connection_string")
		if err != nil {
			return nil, err
		}
		cs, err := azureiot.ParseConnectionString(values[0])
		if err != nil {
			return nil, err
		}
		client := f.client(integration, azureiot.Name, orDefault(integration.BaseURL, cs.Endpoint()))
		return azureiot.New(cs, client), nil

	case models.ProviderMQTT:
		broker := orDefault(integration.BaseURL, integration.Setting("broker_url"))
		if broker == "" {
			return nil, provider.Configuration("mqtt: broker url is required")
		}
		// Anonymous brokers need no credential reference.
		var creds secrets.Credentials
		if integration.CredentialRef != "" {
			var err error
			if creds, err = f.credentials(ctx, integration); err != nil {
				return nil, err
			}
		}
		collector := mqtt.NewBroker(mqtt.BrokerOptions{
			URL:      broker,
			ClientID: "fleet-sync-" + integration.ID,
			Username: creds.Get("username"),
			Password: creds.Get("password"),
			Timeout:  f.config.Timeout(),
		})
		return mqtt.New(collector, mqtt.Options{TopicPrefix: integration.Setting("topic_prefix")}), nil

	case models.ProviderNetNeuralHub:
		return nil, provider.Configuration("provider type %q has no adapter", integration.ProviderType)

	default:
		return nil, provider.Configuration("unknown provider type %q", integration.ProviderType)
	}
}

func (f *Factory) credentials(ctx context.Context, integration *models.Integration) (secrets.Credentials, error) {
	if integration.CredentialRef == "" {
		return nil, provider.Configuration("integration %s has no credential reference", integration.ID)
	}
	return f.secrets.Resolve(ctx, integration.CredentialRef)
}

func (f *Factory) client(integration *models.Integration, name, baseURL string) *provider.HTTPClient {
	return provider.NewHTTPClient(name, baseURL, f.config, f.limiter(integration))
}

func (f *Factory) limiter(integration *models.Integration) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[integration.ID]
	if !ok {
		l = provider.NewLimiter(f.config)
		f.limiters[integration.ID] = l
	}
	return l
}

func (f *Factory) breaker(integration *models.Integration) *provider.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	cb, ok := f.breakers[integration.ID]
	if !ok {
		cb = provider.NewCircuitBreaker(string(integration.ProviderType)+":"+integration.ID, f.config.BreakerConfig(), f.logger)
		f.breakers[integration.ID] = cb
	}
	return cb
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
