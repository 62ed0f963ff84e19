// Package http wires the gateway's HTTP endpoints onto a Gin engine.
package http
