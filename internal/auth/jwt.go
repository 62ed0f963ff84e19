package auth

import (
	"crypto/rsa"
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/gemhq/cdpgate/internal/cache"
)

// Verifier validates RS256-signed JWTs against a configured public key.
// Accepted tokens are cached by their raw value so repeat requests skip
// signature verification until the token expires.
type Verifier struct {
	key        *rsa.PublicKey
	cache      *cache.Cache[string, struct{}]
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewVerifier creates a verifier. A nil key disables validation: every
// Verify call returns ErrUnavailable.
func NewVerifier(key *rsa.PublicKey, c *cache.Cache[string, struct{}], defaultTTL time.Duration, logger *zap.Logger) *Verifier {
	return &Verifier{
		key:        key,
		cache:      c,
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// Verify checks the token and reports whether the decision came from
// the cache. Errors are ErrUnavailable, ErrExpired, or ErrInvalid.
func (v *Verifier) Verify(token string) (cached bool, err error) {
	if v.key == nil {
		return false, ErrUnavailable
	}

	if _, ok := v.cache.Get(token); ok {
		return true, nil
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, v.keyFunc,
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return false, ErrExpired
		}
		v.logger.Warn("jwt validation failed", zap.Error(err))
		return false, ErrInvalid
	}

	if ttl := v.cacheTTL(claims); ttl > 0 {
		v.cache.Set(token, struct{}{}, ttl)
	}
	return false, nil
}

// cacheTTL derives the cache lifetime from the exp claim. Tokens
// without one get the default lifetime; tokens expiring right now are
// not cached at all.
func (v *Verifier) cacheTTL(claims jwt.MapClaims) time.Duration {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return v.defaultTTL
	}
	return time.Until(exp.Time)
}

func (v *Verifier) keyFunc(*jwt.Token) (any, error) {
	return v.key, nil
}
