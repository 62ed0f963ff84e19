// Package proxy forwards Chrome DevTools Protocol traffic to an
// upstream browser: discovery requests over HTTP with debugger URL
// rewriting, and debugging sessions over a full-duplex WebSocket relay
// with a private control channel.
package proxy
