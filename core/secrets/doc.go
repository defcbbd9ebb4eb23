// Package secrets resolves an integration's opaque credential reference into
// decrypted provider credentials. Storage and encryption of the secrets live
// outside this service; EnvResolver reads them from the environment (as injected
// by the deployment's secret manager) and StaticResolver serves tests.
package secrets
