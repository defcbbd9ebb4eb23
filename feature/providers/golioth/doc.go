// Package golioth is the reference provider adapter, for the Golioth IoT
// management API.
//
// The device list is paged by page number and may omit metadata; such entries
// are returned as partial snapshots and completed with GetDeviceStatus.
// Tags carry structure: "type:<x>" names the device type, "gateway:<id>" the
// parent gateway, and a bare "maintenance" tag downgrades an online device to
// warning.
package golioth
