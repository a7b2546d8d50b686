package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/signing"
)

// Issuer builds and signs access tokens and OIDC ID tokens. Signing is
// delegated to the configured KeySet, so the issuer is agnostic to whether
// RS256 or the HS256 fallback is active.
type Issuer struct {
	config *config.Config
	keys   *signing.KeySet
}

// NewIssuer creates a new Issuer.
func NewIssuer(cfg *config.Config, keys *signing.KeySet) *Issuer {
	return &Issuer{config: cfg, keys: keys}
}

// Result carries a signed token together with its expiry.
type Result struct {
	TokenString string
	ExpiresAt   time.Time
}

// GenerateAccessToken creates a signed access token. The base claim set is
// always present; scope membership gates the identity claims on top of it,
// with organization attributes nested under an "organization" object.
func (i *Issuer) GenerateAccessToken(
	user *models.User,
	scope, clientID string,
) (*Result, error) {
	now := time.Now()
	expiresAt := now.Add(i.config.AccessTokenExpiration)

	claims := jwt.MapClaims{
		"sub":       user.ID,
		"iss":       i.config.BaseURL,
		"aud":       i.config.Audience,
		"exp":       expiresAt.Unix(),
		"iat":       now.Unix(),
		"scope":     scope,
		"username":  user.Username,
		"email":     user.Email,
		"client_id": clientID,
	}
	AppendScopeClaims(claims, user, ScopeSet(scope), OrgNested)

	tokenString, err := i.keys.Signer.Sign(claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return &Result{TokenString: tokenString, ExpiresAt: expiresAt}, nil
}

// GenerateIDToken creates a signed OIDC ID token. Unlike the access token,
// the audience is the requesting client and organization attributes are
// flattened onto the top level.
func (i *Issuer) GenerateIDToken(
	user *models.User,
	scope, clientID string,
	authTime time.Time,
) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"iss":            i.config.BaseURL,
		"sub":            user.ID,
		"aud":            clientID,
		"exp":            now.Add(i.config.IDTokenExpiration).Unix(),
		"iat":            now.Unix(),
		"auth_time":      authTime.Unix(),
		"email":          user.Email,
		"email_verified": true,
	}
	AppendScopeClaims(claims, user, ScopeSet(scope), OrgFlattened)

	tokenString, err := i.keys.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return tokenString, nil
}

// Algorithm returns the active signing algorithm (RS256 or HS256).
func (i *Issuer) Algorithm() string {
	return i.keys.Algorithm
}
