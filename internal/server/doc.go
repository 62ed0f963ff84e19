// Package server assembles the gateway: configuration, logging,
// metrics, auth, the proxy service, and the HTTP router.
package server
