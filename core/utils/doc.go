// Package utils provides conversion helpers used when decoding loosely typed
// provider payloads (device tags, attributes, MQTT status messages).
package utils
