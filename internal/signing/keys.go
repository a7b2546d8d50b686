package signing

import (
	"crypto/rsa"
	"log"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/go-ssohub/ssohub/internal/config"
)

// KeySet bundles the active signer with the verification chain and the
// public material exposed over JWKS. Key material is loaded once at startup;
// changing keys requires a restart.
type KeySet struct {
	Signer    Signer
	Verifier  Verifier
	Algorithm string

	publicKey *rsa.PublicKey // nil in HMAC-only mode
}

// Load builds the KeySet from configuration. When both RSA key files load,
// tokens are signed with RS256 and verification falls back to HS256 for
// tokens issued before the key pair existed. Otherwise the server runs in
// HMAC-only mode with a loud warning.
func Load(cfg *config.Config) (*KeySet, error) {
	hmacSigner, err := NewHMACSigner(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	privateKey, publicKey, rsaErr := loadRSAKeyPair(cfg.RSAPrivateKeyPath, cfg.RSAPublicKeyPath)
	if rsaErr != nil {
		log.Printf("[Signing] WARNING: RSA key pair unavailable (%v); "+
			"falling back to HS256 shared-secret signing", rsaErr)
		return &KeySet{
			Signer:    hmacSigner,
			Verifier:  NewChainVerifier(hmacSigner),
			Algorithm: hmacSigner.Algorithm(),
		}, nil
	}

	rsaSigner, err := NewRSASigner(privateKey)
	if err != nil {
		return nil, err
	}
	rsaVerifier, err := NewRSAVerifier(publicKey)
	if err != nil {
		return nil, err
	}

	log.Printf("[Signing] Using RS256 key pair from %s", cfg.RSAPrivateKeyPath)
	return &KeySet{
		Signer:    rsaSigner,
		Verifier:  NewChainVerifier(rsaVerifier, hmacSigner),
		Algorithm: rsaSigner.Algorithm(),
		publicKey: publicKey,
	}, nil
}

func loadRSAKeyPair(privatePath, publicPath string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privatePEM, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, nil, err
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, nil, err
	}

	publicPEM, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, nil, err
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, nil, err
	}

	return privateKey, publicKey, nil
}
