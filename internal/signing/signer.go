// Package signing provides the JWT signing and verification strategy used by
// the token service: an RSA (RS256) key pair when one is configured, with a
// shared-secret (HS256) fallback so the server stays usable without
// generated keys. Verification always tries RS256 first and retries with
// HS256 before rejecting, so tokens issued under either algorithm remain
// valid through one call path.
package signing

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs a claim set into a compact JWT.
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)
	Algorithm() string
}

// Verifier parses and verifies a compact JWT, returning its claims.
type Verifier interface {
	Verify(tokenString string) (jwt.MapClaims, error)
}

// HMACSigner signs tokens with HS256 using a shared secret.
type HMACSigner struct {
	secret []byte
}

func NewHMACSigner(secret string) (*HMACSigner, error) {
	if secret == "" {
		return nil, ErrNoKeyMaterial
	}
	return &HMACSigner{secret: []byte(secret)}, nil
}

func (s *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *HMACSigner) Algorithm() string {
	return "HS256"
}

// Verify parses the token and checks its HS256 signature.
func (s *HMACSigner) Verify(tokenString string) (jwt.MapClaims, error) {
	return verify(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
}

// RSASigner signs tokens with RS256 using a private key.
type RSASigner struct {
	key *rsa.PrivateKey
}

func NewRSASigner(key *rsa.PrivateKey) (*RSASigner, error) {
	if key == nil {
		return nil, ErrNoKeyMaterial
	}
	return &RSASigner{key: key}, nil
}

func (s *RSASigner) Sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
}

func (s *RSASigner) Algorithm() string {
	return "RS256"
}

// RSAVerifier verifies RS256 signatures with a public key.
type RSAVerifier struct {
	key *rsa.PublicKey
}

func NewRSAVerifier(key *rsa.PublicKey) (*RSAVerifier, error) {
	if key == nil {
		return nil, ErrNoKeyMaterial
	}
	return &RSAVerifier{key: key}, nil
}

func (v *RSAVerifier) Verify(tokenString string) (jwt.MapClaims, error) {
	return verify(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.key, nil
	})
}

// ChainVerifier tries each verifier in order and accepts the first success.
// Expiry is reported as ErrTokenExpired immediately since retrying another
// key cannot cure an expired token.
type ChainVerifier struct {
	verifiers []Verifier
}

func NewChainVerifier(verifiers ...Verifier) *ChainVerifier {
	return &ChainVerifier{verifiers: verifiers}
}

func (c *ChainVerifier) Verify(tokenString string) (jwt.MapClaims, error) {
	for _, v := range c.verifiers {
		claims, err := v.Verify(tokenString)
		if err == nil {
			return claims, nil
		}
		if errors.Is(err, ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
	}
	return nil, ErrInvalidSignature
}

func verify(tokenString string, keyFunc jwt.Keyfunc) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}
