// Package monitoring provides Prometheus metrics for the gateway:
// HTTP request counters, authorization decisions, discovery proxy
// traffic, and relay session activity.
package monitoring
