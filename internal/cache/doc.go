// Package cache provides a generic in-memory TTL cache used by the
// ticket store and the JWT verification cache.
package cache
