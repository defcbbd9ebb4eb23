// Package mqtt adapts fleets that report over an MQTT broker instead of a
// management API. The inventory is the set of retained status messages under
// a topic prefix, collected for a short window.
package mqtt
