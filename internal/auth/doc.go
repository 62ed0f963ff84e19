// Package auth implements the authentication gateway: short-lived
// tickets for clients that cannot send headers, and RS256 JWT
// validation with a verification cache for everyone else.
package auth
