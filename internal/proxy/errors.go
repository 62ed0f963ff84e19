package proxy

import "errors"

var (
	// ErrNotConfigured indicates the upstream endpoint is not configured.
	// Proxy operations fail closed in this state.
	ErrNotConfigured = errors.New("cdp proxy is not configured")

	// ErrUpstreamTimeout indicates the upstream request timed out.
	ErrUpstreamTimeout = errors.New("cdp request timeout")

	// ErrUpstreamUnreachable indicates the upstream connection failed.
	ErrUpstreamUnreachable = errors.New("cdp connection failed")
)
