package secrets

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fleet-sync/core/provider"

	"github.com/goccy/go-json"
	"github.com/spf13/viper"
)

// Credentials are the decrypted key/value pairs of one credential reference,
// e.g. {"api_key": "..."} or {"access_key_id": "...", "secret_access_key": "..."}.
type Credentials map[string]string

// Get returns the value for key, or "" when absent.
func (c Credentials) Get(key string) string {
	return c[key]
}

// Require returns the values for keys, or a configuration error naming the first missing one.
func (c Credentials) Require(keys ...string) ([]string, error) {
	out := make([]string, len(keys))
	for i, key := range keys {
		v := strings.TrimSpace(c[key])
		if v == "" {
			return nil, provider.Configuration("credential %q is missing", key)
		}
		out[i] = v
	}
	return out, nil
}

// Resolver supplies decrypted provider credentials on demand.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (Credentials, error)
}

// EnvResolver reads credentials from the environment. A reference "golioth-prod"
// is looked up as <Prefix>_GOLIOTH_PROD and must hold a JSON object of strings.
type EnvResolver struct {
	Prefix string
	v      *viper.Viper
}

// NewEnvResolver creates a resolver over the process environment.
func NewEnvResolver(prefix string) *EnvResolver {
	v := viper.New()
	v.AutomaticEnv()
	return &EnvResolver{Prefix: prefix, v: v}
}

// Resolve implements Resolver.
func (r *EnvResolver) Resolve(_ context.Context, ref string) (Credentials, error) {
	if ref == "" {
		return nil, provider.Configuration("credential reference is empty")
	}
	key := envKey(r.Prefix, ref)
	raw := r.v.GetString(key)
	if raw == "" {
		return nil, provider.Configuration("no credentials stored for %q", ref)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, provider.Configuration("credentials for %q are not a JSON object: %v", ref, err)
	}
	return creds, nil
}

func envKey(prefix, ref string) string {
	replacer := strings.NewReplacer("-", "_", ".", "_", "/", "_", " ", "_")
	key := strings.ToUpper(replacer.Replace(ref))
	if prefix == "" {
		return key
	}
	return fmt.Sprintf("%s_%s", strings.ToUpper(prefix), key)
}

// StaticResolver serves credentials from memory. Safe for concurrent use.
type StaticResolver struct {
	mu    sync.RWMutex
	creds map[string]Credentials
}

// NewStaticResolver creates a resolver seeded with creds.
func NewStaticResolver(creds map[string]Credentials) *StaticResolver {
	if creds == nil {
		creds = make(map[string]Credentials)
	}
	return &StaticResolver{creds: creds}
}

// Put stores credentials for ref.
func (r *StaticResolver) Put(ref string, creds Credentials) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[ref] = creds
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(_ context.Context, ref string) (Credentials, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	creds, ok := r.creds[ref]
	if !ok {
		return nil, provider.Configuration("no credentials stored for %q", ref)
	}
	return creds, nil
}
