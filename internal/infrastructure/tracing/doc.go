// Package tracing provides lightweight request tracing: one span per
// HTTP request, logged through zap with a ULID trace identifier.
package tracing
