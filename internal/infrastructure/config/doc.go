// Package config loads gateway configuration from environment variables.
package config
