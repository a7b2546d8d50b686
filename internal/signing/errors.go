package signing

import "errors"

var (
	// ErrTokenExpired is returned when a token verified successfully but its
	// exp claim is in the past.
	ErrTokenExpired = errors.New("token has expired")

	// ErrInvalidSignature is returned when no configured verifier accepts
	// the token's signature.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrNoKeyMaterial is returned when a signer is constructed without
	// usable key material.
	ErrNoKeyMaterial = errors.New("no signing key material available")
)
