package signing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ssohub/ssohub/internal/config"
)

func testClaims(sub string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": sub,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

func TestHMACSignerRoundTrip(t *testing.T) {
	signer, err := NewHMACSigner("test-secret")
	require.NoError(t, err)
	assert.Equal(t, "HS256", signer.Algorithm())

	tokenString, err := signer.Sign(testClaims("user-1"))
	require.NoError(t, err)

	claims, err := signer.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])
}

func TestHMACSignerEmptySecret(t *testing.T) {
	_, err := NewHMACSigner("")
	assert.ErrorIs(t, err, ErrNoKeyMaterial)
}

func TestHMACSignerWrongSecret(t *testing.T) {
	signer, err := NewHMACSigner("secret-a")
	require.NoError(t, err)
	other, err := NewHMACSigner("secret-b")
	require.NoError(t, err)

	tokenString, err := signer.Sign(testClaims("user-1"))
	require.NoError(t, err)

	_, err = other.Verify(tokenString)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestHMACSignerExpiredToken(t *testing.T) {
	signer, err := NewHMACSigner("test-secret")
	require.NoError(t, err)

	tokenString, err := signer.Sign(jwt.MapClaims{
		"sub": "user-1",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = signer.Verify(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRSASignerRoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	signer, err := NewRSASigner(key)
	require.NoError(t, err)
	assert.Equal(t, "RS256", signer.Algorithm())

	verifier, err := NewRSAVerifier(&key.PublicKey)
	require.NoError(t, err)

	tokenString, err := signer.Sign(testClaims("user-2"))
	require.NoError(t, err)

	claims, err := verifier.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-2", claims["sub"])
}

func TestRSASignerNilKey(t *testing.T) {
	_, err := NewRSASigner(nil)
	assert.ErrorIs(t, err, ErrNoKeyMaterial)

	_, err = NewRSAVerifier(nil)
	assert.ErrorIs(t, err, ErrNoKeyMaterial)
}

func TestRSAVerifierRejectsHMACToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	verifier, err := NewRSAVerifier(&key.PublicKey)
	require.NoError(t, err)

	hmacSigner, err := NewHMACSigner("test-secret")
	require.NoError(t, err)
	tokenString, err := hmacSigner.Sign(testClaims("user-1"))
	require.NoError(t, err)

	_, err = verifier.Verify(tokenString)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestChainVerifierAcceptsBothAlgorithms(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	rsaSigner, err := NewRSASigner(key)
	require.NoError(t, err)
	rsaVerifier, err := NewRSAVerifier(&key.PublicKey)
	require.NoError(t, err)
	hmacSigner, err := NewHMACSigner("test-secret")
	require.NoError(t, err)

	chain := NewChainVerifier(rsaVerifier, hmacSigner)

	rsaToken, err := rsaSigner.Sign(testClaims("rsa-user"))
	require.NoError(t, err)
	claims, err := chain.Verify(rsaToken)
	require.NoError(t, err)
	assert.Equal(t, "rsa-user", claims["sub"])

	hmacToken, err := hmacSigner.Sign(testClaims("hmac-user"))
	require.NoError(t, err)
	claims, err = chain.Verify(hmacToken)
	require.NoError(t, err)
	assert.Equal(t, "hmac-user", claims["sub"])
}

func TestChainVerifierRejectsGarbage(t *testing.T) {
	hmacSigner, err := NewHMACSigner("test-secret")
	require.NoError(t, err)
	chain := NewChainVerifier(hmacSigner)

	_, err = chain.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestChainVerifierExpiredShortCircuits(t *testing.T) {
	hmacSigner, err := NewHMACSigner("test-secret")
	require.NoError(t, err)
	chain := NewChainVerifier(hmacSigner)

	tokenString, err := hmacSigner.Sign(jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = chain.Verify(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func writeRSAKeyPair(t *testing.T) (privatePath, publicPath string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privatePath = filepath.Join(dir, "private.pem")
	publicPath = filepath.Join(dir, "public.pem")

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	require.NoError(t, os.WriteFile(privatePath, privatePEM, 0o600))

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})
	require.NoError(t, os.WriteFile(publicPath, publicPEM, 0o600))

	return privatePath, publicPath
}

func TestLoadRSAMode(t *testing.T) {
	privatePath, publicPath := writeRSAKeyPair(t)
	keys, err := Load(&config.Config{
		JWTSecret:         "fallback-secret",
		RSAPrivateKeyPath: privatePath,
		RSAPublicKeyPath:  publicPath,
	})
	require.NoError(t, err)
	assert.Equal(t, "RS256", keys.Algorithm)

	// RSA-signed tokens verify through the chain
	tokenString, err := keys.Signer.Sign(testClaims("user-1"))
	require.NoError(t, err)
	claims, err := keys.Verifier.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])

	// Tokens issued before the key pair existed still verify via HS256
	hmacSigner, err := NewHMACSigner("fallback-secret")
	require.NoError(t, err)
	legacyToken, err := hmacSigner.Sign(testClaims("legacy-user"))
	require.NoError(t, err)
	claims, err = keys.Verifier.Verify(legacyToken)
	require.NoError(t, err)
	assert.Equal(t, "legacy-user", claims["sub"])

	jwks := keys.JWKS()
	require.Len(t, jwks.Keys, 1)
	assert.Equal(t, "RSA", jwks.Keys[0].Kty)
	assert.Equal(t, "RS256", jwks.Keys[0].Alg)
	assert.Equal(t, "sig", jwks.Keys[0].Use)
	assert.NotEmpty(t, jwks.Keys[0].N)
	assert.NotEmpty(t, jwks.Keys[0].E)
}

func TestLoadHMACFallback(t *testing.T) {
	keys, err := Load(&config.Config{
		JWTSecret:         "fallback-secret",
		RSAPrivateKeyPath: "/nonexistent/private.pem",
		RSAPublicKeyPath:  "/nonexistent/public.pem",
	})
	require.NoError(t, err)
	assert.Equal(t, "HS256", keys.Algorithm)

	tokenString, err := keys.Signer.Sign(testClaims("user-1"))
	require.NoError(t, err)
	claims, err := keys.Verifier.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["sub"])

	// The shared secret is never published
	assert.Empty(t, keys.JWKS().Keys)
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := Load(&config.Config{JWTSecret: ""})
	assert.ErrorIs(t, err, ErrNoKeyMaterial)
}
