// Package middleware provides HTTP middleware for the API layer.
package middleware
