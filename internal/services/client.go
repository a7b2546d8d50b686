package services

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"

	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/store"
	"github.com/go-ssohub/ssohub/internal/util"
)

var (
	ErrClientNotFound     = errors.New("client not found")
	ErrClientExists       = errors.New("client already exists")
	ErrInvalidClientID    = errors.New("client_id may only contain letters, digits, underscore and dash")
	ErrInvalidRedirectURI = errors.New("redirect URI is not a valid absolute URL")
	ErrClientDataRequired = errors.New("client_id, name and redirect_uris are required")
	ErrNoUpdates          = errors.New("no fields to update")
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ClientService manages the OAuth client registry. Every mutation that can
// change the set of callback origins notifies the origin policy engine.
type ClientService struct {
	store   *store.Store
	origins *OriginService
}

func NewClientService(s *store.Store, origins *OriginService) *ClientService {
	return &ClientService{store: s, origins: origins}
}

type CreateClientRequest struct {
	ClientID     string
	Name         string
	RedirectURIs []string
	Scopes       []string
	CreatedBy    string
}

// UpdateClientRequest carries a partial update. Nil slices/pointers leave the
// field untouched.
type UpdateClientRequest struct {
	Name         *string
	RedirectURIs []string
	Scopes       []string
	IsActive     *bool
}

// ClientResponse wraps a client with its plaintext secret, which is only
// populated on creation and secret regeneration.
type ClientResponse struct {
	*models.Client
	ClientSecretPlain string
}

func validateRedirectURIs(uris []string) error {
	for _, uri := range uris {
		if !util.IsValidAbsoluteURL(strings.TrimSpace(uri)) {
			return ErrInvalidRedirectURI
		}
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (s *ClientService) CreateClient(ctx context.Context, req CreateClientRequest) (*ClientResponse, error) {
	clientID := strings.TrimSpace(req.ClientID)
	name := strings.TrimSpace(req.Name)
	redirectURIs := trimAll(req.RedirectURIs)

	if clientID == "" || name == "" || len(redirectURIs) == 0 {
		return nil, ErrClientDataRequired
	}
	if !clientIDPattern.MatchString(clientID) {
		return nil, ErrInvalidClientID
	}
	if err := validateRedirectURIs(redirectURIs); err != nil {
		return nil, err
	}
	if _, err := s.store.GetClient(clientID); err == nil {
		return nil, ErrClientExists
	}

	scopes := trimAll(req.Scopes)
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile"}
	}

	secret, err := models.GenerateClientSecret()
	if err != nil {
		return nil, err
	}

	client := &models.Client{
		ClientID:     clientID,
		ClientSecret: secret,
		Name:         name,
		RedirectURIs: models.StringArray(redirectURIs),
		Scopes:       strings.Join(scopes, " "),
		IsActive:     true,
		CreatedBy:    req.CreatedBy,
	}

	if err := s.store.CreateClient(client); err != nil {
		return nil, err
	}

	if err := s.origins.ManageClientOrigins(ctx, client); err != nil {
		log.Printf("[Clients] Failed to sync origins for %s: %v", clientID, err)
	}

	return &ClientResponse{
		Client:            client,
		ClientSecretPlain: secret,
	}, nil
}

func (s *ClientService) UpdateClient(ctx context.Context, clientID string, req UpdateClientRequest) (*models.Client, error) {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		return nil, ErrClientNotFound
	}

	if req.Name == nil && req.RedirectURIs == nil && req.Scopes == nil && req.IsActive == nil {
		return nil, ErrNoUpdates
	}

	originsChanged := false

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrClientDataRequired
		}
		client.Name = name
	}

	if req.RedirectURIs != nil {
		redirectURIs := trimAll(req.RedirectURIs)
		if len(redirectURIs) == 0 {
			return nil, ErrClientDataRequired
		}
		if err := validateRedirectURIs(redirectURIs); err != nil {
			return nil, err
		}
		client.RedirectURIs = models.StringArray(redirectURIs)
		originsChanged = true
	}

	if req.Scopes != nil {
		client.Scopes = strings.Join(trimAll(req.Scopes), " ")
	}

	if req.IsActive != nil && client.IsActive != *req.IsActive {
		client.IsActive = *req.IsActive
		originsChanged = true
	}

	if err := s.store.UpdateClient(client); err != nil {
		return nil, err
	}

	if originsChanged {
		if err := s.origins.ManageClientOrigins(ctx, client); err != nil {
			return nil, err
		}
	}

	return client, nil
}

func (s *ClientService) DeleteClient(ctx context.Context, clientID string) error {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		return ErrClientNotFound
	}

	if err := s.store.DeleteClient(clientID); err != nil {
		return err
	}

	return s.origins.HandleClientDeleted(ctx, client)
}

func (s *ClientService) GetClient(clientID string) (*models.Client, error) {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		return nil, ErrClientNotFound
	}
	return client, nil
}

func (s *ClientService) ListClients(
	params store.PaginationParams,
	active *bool,
) ([]models.Client, store.PaginationResult, error) {
	return s.store.ListClients(params, active)
}

// RegenerateSecret replaces the client secret immediately. The previous
// secret stops working with no grace window.
func (s *ClientService) RegenerateSecret(clientID string) (string, error) {
	client, err := s.store.GetClient(clientID)
	if err != nil {
		return "", ErrClientNotFound
	}

	secret, err := models.GenerateClientSecret()
	if err != nil {
		return "", err
	}

	client.ClientSecret = secret
	if err := s.store.UpdateClient(client); err != nil {
		return "", err
	}
	return secret, nil
}

// ValidateRedirect reports whether redirectURI is registered for an active
// client. Fails closed: any lookup or parse problem rejects the request.
func (s *ClientService) ValidateRedirect(clientID, redirectURI string) bool {
	client, err := s.store.GetClient(clientID)
	if err != nil || !client.IsActive {
		return false
	}
	if !util.IsValidAbsoluteURL(redirectURI) {
		return false
	}
	return client.HasRedirectURI(redirectURI)
}

// ClientStats summarizes the registry for the admin dashboard.
type ClientStats struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Inactive int64 `json:"inactive"`
}

func (s *ClientService) GetClientStats() (*ClientStats, error) {
	active, err := s.store.CountClientsByActive(true)
	if err != nil {
		return nil, err
	}
	inactive, err := s.store.CountClientsByActive(false)
	if err != nil {
		return nil, err
	}
	return &ClientStats{
		Total:    active + inactive,
		Active:   active,
		Inactive: inactive,
	}, nil
}
