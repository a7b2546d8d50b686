package signing

import (
	"encoding/base64"
	"math/big"
)

// JWK is a single RSA public key in JSON Web Key form (RFC 7517).
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is the published key set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWKS returns the public key set for external verifiers. In HMAC-only mode
// the key list is empty: the shared secret is never published, so callers
// must verify through the issuer instead.
func (k *KeySet) JWKS() JWKS {
	if k.publicKey == nil {
		return JWKS{Keys: []JWK{}}
	}

	eBytes := big.NewInt(int64(k.publicKey.E)).Bytes()
	return JWKS{
		Keys: []JWK{
			{
				Kty: "RSA",
				Use: "sig",
				Alg: "RS256",
				Kid: "default",
				N:   base64.RawURLEncoding.EncodeToString(k.publicKey.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(eBytes),
			},
		},
	}
}
