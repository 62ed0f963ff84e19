package auth

import "errors"

var (
	// ErrUnavailable indicates JWT validation cannot run because no public
	// key is configured.
	ErrUnavailable = errors.New("jwt validation unavailable: public key not configured")

	// ErrExpired indicates the presented token has expired.
	ErrExpired = errors.New("token has expired")

	// ErrInvalid indicates the token failed signature or claims validation.
	ErrInvalid = errors.New("invalid token")

	// ErrUnauthorized indicates the request carried no usable credential:
	// a bad ticket, a missing Authorization header, or a malformed one.
	ErrUnauthorized = errors.New("unauthorized")
)
