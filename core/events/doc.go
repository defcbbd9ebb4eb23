// Package events publishes sync lifecycle events on NATS so downstream
// services (alerting, dashboards) learn about sealed runs without polling.
package events
