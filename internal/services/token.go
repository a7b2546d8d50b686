package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/go-ssohub/ssohub/internal/metrics"
	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/signing"
	"github.com/go-ssohub/ssohub/internal/store"
	"github.com/go-ssohub/ssohub/internal/token"
	"github.com/go-ssohub/ssohub/internal/util"
)

var (
	ErrUnsupportedGrantType = errors.New("unsupported grant type")
	ErrInvalidGrant         = errors.New("invalid grant")

	// Verification taxonomy. Handlers map these onto the exact status codes
	// and messages resource servers depend on.
	ErrTokenNotLive   = errors.New("invalid or expired token")
	ErrTokenSignature = errors.New("invalid token signature")
)

// TokenService redeems authorization codes for signed tokens and verifies
// bearer tokens presented by resource servers.
type TokenService struct {
	store   *store.Store
	issuer  *token.Issuer
	keys    *signing.KeySet
	metrics metrics.Recorder
}

func NewTokenService(s *store.Store, issuer *token.Issuer, keys *signing.KeySet) *TokenService {
	return &TokenService{store: s, issuer: issuer, keys: keys, metrics: metrics.NewNoopMetrics()}
}

// SetMetrics attaches a metrics recorder. The default is a no-op.
func (s *TokenService) SetMetrics(r metrics.Recorder) {
	s.metrics = r
}

// ExchangeRequest is the POST /token form for grant_type=authorization_code.
type ExchangeRequest struct {
	GrantType    string
	Code         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// TokenResponse is the OAuth2 token endpoint success body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// Exchange redeems a single-use authorization code. The code row is deleted
// in the same transaction that persists the access-token ledger entry, so a
// concurrent redemption of the same code cannot double-issue.
func (s *TokenService) Exchange(ctx context.Context, req ExchangeRequest) (*TokenResponse, error) {
	start := time.Now()
	resp, err := s.exchange(ctx, req)
	s.metrics.RecordTokenExchange(exchangeResult(err), time.Since(start))
	return resp, err
}

func exchangeResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnsupportedGrantType):
		return "unsupported_grant_type"
	case errors.Is(err, ErrInvalidClient):
		return "invalid_client"
	case errors.Is(err, ErrInvalidGrant):
		return "invalid_grant"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "error"
	}
}

func (s *TokenService) exchange(ctx context.Context, req ExchangeRequest) (*TokenResponse, error) {
	if req.GrantType != "authorization_code" {
		return nil, ErrUnsupportedGrantType
	}
	if req.Code == "" || req.ClientID == "" {
		return nil, ErrInvalidRequest
	}

	client, err := s.store.GetClient(req.ClientID)
	if err != nil || !client.IsActive {
		return nil, ErrInvalidClient
	}
	if !client.ValidateClientSecret(req.ClientSecret) {
		return nil, ErrInvalidClient
	}

	code, err := s.store.GetLiveAuthorizationCode(req.Code, req.ClientID)
	if err != nil {
		return nil, ErrInvalidGrant
	}
	if req.RedirectURI != "" && req.RedirectURI != code.RedirectURI {
		return nil, ErrInvalidGrant
	}

	user, err := s.store.GetUserByID(code.UserID)
	if err != nil {
		return nil, ErrInvalidRequest
	}

	access, err := s.issuer.GenerateAccessToken(user, code.Scope, client.ClientID)
	if err != nil {
		return nil, err
	}
	idToken, err := s.issuer.GenerateIDToken(user, code.Scope, client.ClientID, code.CreatedAt)
	if err != nil {
		return nil, err
	}

	ledger := &models.AccessToken{
		ID:        uuid.New().String(),
		TokenHash: util.SHA256Hex(access.TokenString),
		TokenType: models.TokenTypeBearer,
		UserID:    user.ID,
		ClientID:  client.ClientID,
		Scope:     code.Scope,
		ExpiresAt: access.ExpiresAt,
	}

	err = s.store.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.store.ConsumeAuthorizationCode(tx, code.Code); err != nil {
			return err
		}
		return tx.Create(ledger).Error
	})
	if err != nil {
		if errors.Is(err, store.ErrAuthCodeAlreadyUsed) {
			return nil, ErrInvalidGrant
		}
		return nil, err
	}

	return &TokenResponse{
		AccessToken: access.TokenString,
		TokenType:   models.TokenTypeBearer,
		ExpiresIn:   int64(time.Until(access.ExpiresAt).Seconds()),
		IDToken:     idToken,
		// Opaque, stored nowhere and not independently redeemable.
		RefreshToken: uuid.New().String(),
		Scope:        code.Scope,
	}, nil
}

// ValidateToken is the strict verification path: the token must have a live
// ledger row and a valid signature under either accepted algorithm.
func (s *TokenService) ValidateToken(tokenString string) (*models.User, jwt.MapClaims, error) {
	row, err := s.store.GetLiveAccessToken(util.SHA256Hex(tokenString))
	if err != nil {
		s.metrics.RecordTokenVerification("strict", "not_live")
		return nil, nil, ErrTokenNotLive
	}

	claims, err := s.verify(tokenString)
	if err != nil {
		s.metrics.RecordTokenVerification("strict", verificationResult(err))
		return nil, nil, err
	}

	user, err := s.store.GetUserByID(row.UserID)
	if err != nil {
		s.metrics.RecordTokenVerification("strict", "not_live")
		return nil, nil, ErrTokenNotLive
	}
	s.metrics.RecordTokenVerification("strict", "valid")
	return user, claims, nil
}

// VerifySignatureOnly skips the ledger check. Used by UserInfo, which may
// serve tokens whose ledger rows live in another deployment.
func (s *TokenService) VerifySignatureOnly(tokenString string) (jwt.MapClaims, error) {
	claims, err := s.verify(tokenString)
	s.metrics.RecordTokenVerification("signature", verificationResult(err))
	return claims, err
}

func verificationResult(err error) string {
	switch {
	case err == nil:
		return "valid"
	case errors.Is(err, ErrTokenNotLive):
		return "not_live"
	default:
		return "bad_signature"
	}
}

func (s *TokenService) verify(tokenString string) (jwt.MapClaims, error) {
	claims, err := s.keys.Verifier.Verify(tokenString)
	if err != nil {
		if errors.Is(err, signing.ErrTokenExpired) {
			return nil, ErrTokenNotLive
		}
		return nil, ErrTokenSignature
	}
	return claims, nil
}

// UserForClaims loads the user a verified token's sub claim points at.
func (s *TokenService) UserForClaims(claims jwt.MapClaims) (*models.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.store.GetUserByID(sub)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
