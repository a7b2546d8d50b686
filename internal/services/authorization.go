package services

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/go-ssohub/ssohub/internal/auth"
	"github.com/go-ssohub/ssohub/internal/metrics"
	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/store"
)

var (
	ErrInvalidRequest          = errors.New("invalid request")
	ErrInvalidClient           = errors.New("invalid client")
	ErrInvalidRedirect         = errors.New("invalid redirect URI")
	ErrInvalidScope            = errors.New("requested scope is not allowed for this client")
	ErrUnsupportedResponseType = errors.New("unsupported response type")
	ErrInvalidCredentials      = auth.ErrInvalidCredentials
)

// AuthorizeRequest is the query half of the authorization-code flow, carried
// from /oauth2/authorize through the login form submission.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        string
	State        string
}

// AuthorizationService drives the authorization-code flow up to code
// issuance. Token exchange lives in TokenService.
type AuthorizationService struct {
	store    *store.Store
	clients  *ClientService
	provider auth.Provider
	codeTTL  time.Duration
	metrics  metrics.Recorder
}

func NewAuthorizationService(
	s *store.Store,
	clients *ClientService,
	provider auth.Provider,
	codeTTL time.Duration,
) *AuthorizationService {
	return &AuthorizationService{
		store:    s,
		clients:  clients,
		provider: provider,
		codeTTL:  codeTTL,
		metrics:  metrics.NewNoopMetrics(),
	}
}

// SetMetrics attaches a metrics recorder. The default is a no-op.
func (s *AuthorizationService) SetMetrics(r metrics.Recorder) {
	s.metrics = r
}

// ValidateAuthorizeRequest checks the request before the login page is shown
// and again on credential submission. The same checks run twice so a request
// forged between the two steps still fails.
func (s *AuthorizationService) ValidateAuthorizeRequest(req AuthorizeRequest) (*models.Client, error) {
	if req.ResponseType != "code" {
		return nil, ErrUnsupportedResponseType
	}
	if req.ClientID == "" || req.RedirectURI == "" {
		return nil, ErrInvalidRequest
	}

	client, err := s.clients.GetClient(req.ClientID)
	if err != nil || !client.IsActive {
		return nil, ErrInvalidClient
	}
	if !s.clients.ValidateRedirect(req.ClientID, req.RedirectURI) {
		return nil, ErrInvalidRedirect
	}

	if req.Scope != "" {
		allowed := make(map[string]bool)
		for _, scope := range client.ScopeList() {
			allowed[scope] = true
		}
		for _, scope := range strings.Fields(req.Scope) {
			if !allowed[scope] {
				return nil, ErrInvalidScope
			}
		}
	}

	return client, nil
}

// Login verifies credentials and, on success, issues a single-use
// authorization code and builds the callback redirect. Credential failures
// are always the same generic error regardless of cause.
func (s *AuthorizationService) Login(
	ctx context.Context,
	email, password string,
	req AuthorizeRequest,
) (*models.User, string, error) {
	if _, err := s.ValidateAuthorizeRequest(req); err != nil {
		return nil, "", err
	}

	result, err := s.provider.Authenticate(ctx, email, password)
	if err != nil || !result.Success {
		s.metrics.RecordLogin(s.provider.Name(), false)
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.resolveLocalUser(result)
	if err != nil {
		s.metrics.RecordLogin(s.provider.Name(), false)
		return nil, "", ErrInvalidCredentials
	}
	s.metrics.RecordLogin(s.provider.Name(), true)

	scope := req.Scope
	if scope == "" {
		scope = "openid"
	}

	code := &models.AuthorizationCode{
		Code:        uuid.New().String(),
		ClientID:    req.ClientID,
		UserID:      user.ID,
		RedirectURI: req.RedirectURI,
		Scope:       scope,
		ExpiresAt:   time.Now().Add(s.codeTTL),
	}
	if err := s.store.CreateAuthorizationCode(code); err != nil {
		return nil, "", err
	}
	s.metrics.RecordAuthorizationCodeIssued()

	return user, buildCallbackURL(req.RedirectURI, code.Code, req.State), nil
}

// resolveLocalUser maps an authentication result onto the local user record
// that claims are issued from. Remote providers verify the password but the
// identity must still exist locally.
func (s *AuthorizationService) resolveLocalUser(result *auth.Result) (*models.User, error) {
	if result.UserID != "" {
		return s.store.GetUserByID(result.UserID)
	}

	user, err := s.store.GetUserByEmail(result.Email)
	if err != nil {
		log.Printf("[Auth] Provider %q accepted %s but no local user exists",
			s.provider.Name(), result.Email)
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func buildCallbackURL(redirectURI, code, state string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		// Validated upstream; fall back to naive concatenation.
		return redirectURI + "?code=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
