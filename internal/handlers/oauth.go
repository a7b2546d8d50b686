package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/go-ssohub/ssohub/internal/middleware"
	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/services"
	"github.com/go-ssohub/ssohub/internal/templates"
)

const sessionLoginError = "login_error"

// OAuthHandler serves the authorization-code flow endpoints: the authorize
// page, the credential form submission, and the token exchange.
type OAuthHandler struct {
	flow    *services.AuthorizationService
	clients *services.ClientService
	tokens  *services.TokenService
	audit   *services.AuditService
}

func NewOAuthHandler(
	flow *services.AuthorizationService,
	clients *services.ClientService,
	tokens *services.TokenService,
	audit *services.AuditService,
) *OAuthHandler {
	return &OAuthHandler{flow: flow, clients: clients, tokens: tokens, audit: audit}
}

func authorizeRequestFromQuery(c *gin.Context) services.AuthorizeRequest {
	return services.AuthorizeRequest{
		ResponseType: c.Query("response_type"),
		ClientID:     c.Query("client_id"),
		RedirectURI:  c.Query("redirect_uri"),
		Scope:        c.Query("scope"),
		State:        c.Query("state"),
	}
}

// Authorize handles GET /oauth2/authorize: validate the request and render
// the login form. A pending flash from a failed credential attempt is shown
// above the form.
func (h *OAuthHandler) Authorize(c *gin.Context) {
	req := authorizeRequestFromQuery(c)

	client, err := h.flow.ValidateAuthorizeRequest(req)
	if err != nil {
		h.renderAuthorizeError(c, req, err)
		return
	}

	session := sessions.Default(c)
	flash, _ := session.Get(sessionLoginError).(string)
	if flash != "" {
		session.Delete(sessionLoginError)
		_ = session.Save()
	}

	templates.Render(c, http.StatusOK, templates.LoginPage(templates.LoginPageProps{
		BaseProps:   templates.BaseProps{CSRFToken: middleware.GetCSRFToken(c)},
		ClientName:  client.Name,
		Error:       flash,
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Scope:       req.Scope,
		State:       req.State,
	}))
}

// renderAuthorizeError decides between redirecting the error back to the
// client and rendering it locally. Redirecting is only safe once the client
// and redirect URI have been verified.
func (h *OAuthHandler) renderAuthorizeError(c *gin.Context, req services.AuthorizeRequest, err error) {
	var code string
	switch {
	case errors.Is(err, services.ErrUnsupportedResponseType):
		code = "unsupported_response_type"
	case errors.Is(err, services.ErrInvalidScope):
		code = "invalid_scope"
	}

	if code != "" && h.clients.ValidateRedirect(req.ClientID, req.RedirectURI) {
		target, parseErr := url.Parse(req.RedirectURI)
		if parseErr == nil {
			q := target.Query()
			q.Set("error", code)
			if req.State != "" {
				q.Set("state", req.State)
			}
			target.RawQuery = q.Encode()
			c.Redirect(http.StatusFound, target.String())
			return
		}
	}

	templates.Render(c, http.StatusBadRequest, templates.ErrorPage(templates.ErrorPageProps{
		Error:   "Authorization request rejected",
		Message: err.Error(),
	}))
}

// Login handles POST /auth/login. Credential failures flash a generic message
// and bounce back to the authorize page with the pending request intact, so
// the caller cannot distinguish a wrong password from an unknown account.
func (h *OAuthHandler) Login(c *gin.Context) {
	req := services.AuthorizeRequest{
		ResponseType: "code",
		ClientID:     c.PostForm("client_id"),
		RedirectURI:  c.PostForm("redirect_uri"),
		Scope:        c.PostForm("scope"),
		State:        c.PostForm("state"),
	}
	email := c.PostForm("email")

	user, callback, err := h.flow.Login(c.Request.Context(), email, c.PostForm("password"), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.audit.Log(c.Request.Context(), services.AuditLogEntry{
				EventType:     models.EventAuthenticationFailure,
				Severity:      models.SeverityWarning,
				ActorUsername: email,
				ActorIP:       c.ClientIP(),
				ResourceType:  models.ResourceUser,
				Action:        "login",
				Details:       models.AuditDetails{"client_id": req.ClientID},
				ErrorMessage:  "invalid credentials",
			})

			session := sessions.Default(c)
			session.Set(sessionLoginError, "Invalid email or password")
			_ = session.Save()

			c.Redirect(http.StatusFound, authorizePageURL(req))
			return
		}
		h.renderAuthorizeError(c, req, err)
		return
	}

	h.audit.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventAuthorizationCodeGenerated,
		Severity:      models.SeverityInfo,
		ActorUserID:   user.ID,
		ActorUsername: user.Username,
		ActorIP:       c.ClientIP(),
		ResourceType:  models.ResourceClient,
		ResourceID:    req.ClientID,
		Action:        "authorize",
		Details:       models.AuditDetails{"scope": req.Scope},
		Success:       true,
	})

	c.Redirect(http.StatusFound, callback)
}

func authorizePageURL(req services.AuthorizeRequest) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", req.ClientID)
	q.Set("redirect_uri", req.RedirectURI)
	if req.Scope != "" {
		q.Set("scope", req.Scope)
	}
	if req.State != "" {
		q.Set("state", req.State)
	}
	return "/oauth2/authorize?" + q.Encode()
}

// Token handles POST /token for grant_type=authorization_code.
func (h *OAuthHandler) Token(c *gin.Context) {
	req := services.ExchangeRequest{
		GrantType:    c.PostForm("grant_type"),
		Code:         c.PostForm("code"),
		ClientID:     c.PostForm("client_id"),
		ClientSecret: c.PostForm("client_secret"),
		RedirectURI:  c.PostForm("redirect_uri"),
	}

	resp, err := h.tokens.Exchange(c.Request.Context(), req)
	if err != nil {
		h.audit.Log(c.Request.Context(), services.AuditLogEntry{
			EventType:    models.EventAuthorizationCodeDenied,
			Severity:     models.SeverityWarning,
			ActorIP:      c.ClientIP(),
			ResourceType: models.ResourceClient,
			ResourceID:   req.ClientID,
			Action:       "token_exchange",
			Details:      models.AuditDetails{"authorization_code": req.Code},
			ErrorMessage: err.Error(),
		})

		switch {
		case errors.Is(err, services.ErrUnsupportedGrantType):
			oauthError(c, http.StatusBadRequest, "unsupported_grant_type",
				"Only authorization_code is supported")
		case errors.Is(err, services.ErrInvalidClient):
			oauthError(c, http.StatusUnauthorized, "invalid_client",
				"Client authentication failed")
		case errors.Is(err, services.ErrInvalidGrant):
			oauthError(c, http.StatusBadRequest, "invalid_grant",
				"Authorization code is invalid, expired, or already used")
		default:
			oauthError(c, http.StatusBadRequest, "invalid_request",
				"The token request is malformed")
		}
		return
	}

	h.audit.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:    models.EventAccessTokenIssued,
		Severity:     models.SeverityInfo,
		ActorIP:      c.ClientIP(),
		ResourceType: models.ResourceToken,
		ResourceID:   req.ClientID,
		Action:       "token_exchange",
		Details:      models.AuditDetails{"scope": resp.Scope},
		Success:      true,
	})

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, resp)
}
