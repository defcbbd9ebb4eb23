// Package devices serves the device status endpoint: the canonical record of a
// device together with a live lookup against its provider.
package devices
