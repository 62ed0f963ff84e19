package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gemhq/cdpgate/internal/cache"
)

func newTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func newTestVerifier(key *rsa.PublicKey) *Verifier {
	return NewVerifier(key, cache.New[string, struct{}](), 30*time.Minute, zap.NewNop())
}

func TestVerifyNoKeyConfigured(t *testing.T) {
	v := newTestVerifier(nil)

	_, err := v.Verify("anything")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestVerifyValidToken(t *testing.T) {
	key := newTestKey(t)
	v := newTestVerifier(&key.PublicKey)

	token := signToken(t, key, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	cached, err := v.Verify(token)
	require.NoError(t, err)
	assert.False(t, cached)
}

func TestVerifyCachesDecision(t *testing.T) {
	key := newTestKey(t)
	v := newTestVerifier(&key.PublicKey)

	token := signToken(t, key, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	cached, err := v.Verify(token)
	require.NoError(t, err)
	assert.False(t, cached)

	cached, err = v.Verify(token)
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestVerifyTokenWithoutExp(t *testing.T) {
	key := newTestKey(t)
	v := newTestVerifier(&key.PublicKey)

	token := signToken(t, key, jwt.MapClaims{"sub": "user-1"})

	_, err := v.Verify(token)
	require.NoError(t, err)

	cached, err := v.Verify(token)
	require.NoError(t, err)
	assert.True(t, cached, "tokens without exp use the default cache ttl")
}

func TestVerifyExpiredToken(t *testing.T) {
	key := newTestKey(t)
	v := newTestVerifier(&key.PublicKey)

	token := signToken(t, key, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err := v.Verify(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyWrongKey(t *testing.T) {
	signer := newTestKey(t)
	other := newTestKey(t)
	v := newTestVerifier(&other.PublicKey)

	token := signToken(t, signer, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsNonRS256(t *testing.T) {
	key := newTestKey(t)
	v := newTestVerifier(&key.PublicKey)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyGarbageToken(t *testing.T) {
	key := newTestKey(t)
	v := newTestVerifier(&key.PublicKey)

	_, err := v.Verify("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalid)
}
