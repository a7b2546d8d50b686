package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-ssohub/ssohub/internal/middleware"
	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/services"
)

// ClientAdminHandler serves the client registry CRUD under /api/admin/clients.
type ClientAdminHandler struct {
	clients *services.ClientService
	audit   *services.AuditService
}

func NewClientAdminHandler(clients *services.ClientService, audit *services.AuditService) *ClientAdminHandler {
	return &ClientAdminHandler{clients: clients, audit: audit}
}

func clientErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrClientNotFound):
		return http.StatusNotFound, "client_not_found"
	case errors.Is(err, services.ErrClientExists):
		return http.StatusConflict, "client_exists"
	case errors.Is(err, services.ErrInvalidClientID):
		return http.StatusBadRequest, "invalid_client_id"
	case errors.Is(err, services.ErrInvalidRedirectURI):
		return http.StatusBadRequest, "invalid_redirect_uri"
	case errors.Is(err, services.ErrClientDataRequired):
		return http.StatusBadRequest, "client_data_required"
	case errors.Is(err, services.ErrNoUpdates):
		return http.StatusBadRequest, "no_updates"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *ClientAdminHandler) List(c *gin.Context) {
	clients, page, err := h.clients.ListClients(pageParams(c), queryBoolPtr(c, "active"))
	if err != nil {
		apiError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	listResponse(c, "clients", clients, page)
}

func (h *ClientAdminHandler) Get(c *gin.Context) {
	client, err := h.clients.GetClient(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusNotFound, "client_not_found", "No such client")
		return
	}
	c.JSON(http.StatusOK, client)
}

func (h *ClientAdminHandler) Stats(c *gin.Context) {
	stats, err := h.clients.GetClientStats()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, stats)
}

type createClientBody struct {
	ClientID     string   `json:"client_id"     binding:"required"`
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirect_uris"`
	Scopes       []string `json:"scopes"`
}

// Create registers a client. The secret is included in this response only;
// admin list and get responses never echo it back.
func (h *ClientAdminHandler) Create(c *gin.Context) {
	var body createClientBody
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	actor, _ := middleware.UserFromContext(c)
	resp, err := h.clients.CreateClient(c.Request.Context(), services.CreateClientRequest{
		ClientID:     body.ClientID,
		Name:         body.Name,
		RedirectURIs: body.RedirectURIs,
		Scopes:       body.Scopes,
		CreatedBy:    actor.ID,
	})
	if err != nil {
		status, code := clientErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	h.audit.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventClientCreated,
		Severity:      models.SeverityInfo,
		ActorUserID:   actor.ID,
		ActorUsername: actor.Username,
		ActorIP:       c.ClientIP(),
		ResourceType:  models.ResourceClient,
		ResourceID:    resp.ClientID,
		ResourceName:  resp.Name,
		Action:        "client_create",
		Success:       true,
	})

	c.JSON(http.StatusCreated, gin.H{
		"client":        resp.Client,
		"client_secret": resp.ClientSecretPlain,
	})
}

type updateClientBody struct {
	Name         *string  `json:"name"`
	RedirectURIs []string `json:"redirect_uris"`
	Scopes       []string `json:"scopes"`
	IsActive     *bool    `json:"is_active"`
}

func (h *ClientAdminHandler) Update(c *gin.Context) {
	var body updateClientBody
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	client, err := h.clients.UpdateClient(c.Request.Context(), c.Param("id"), services.UpdateClientRequest{
		Name:         body.Name,
		RedirectURIs: body.RedirectURIs,
		Scopes:       body.Scopes,
		IsActive:     body.IsActive,
	})
	if err != nil {
		status, code := clientErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	actor, _ := middleware.UserFromContext(c)
	h.audit.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventClientUpdated,
		Severity:      models.SeverityInfo,
		ActorUserID:   actor.ID,
		ActorUsername: actor.Username,
		ActorIP:       c.ClientIP(),
		ResourceType:  models.ResourceClient,
		ResourceID:    client.ClientID,
		ResourceName:  client.Name,
		Action:        "client_update",
		Success:       true,
	})

	c.JSON(http.StatusOK, client)
}

func (h *ClientAdminHandler) Delete(c *gin.Context) {
	clientID := c.Param("id")
	if err := h.clients.DeleteClient(c.Request.Context(), clientID); err != nil {
		status, code := clientErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	actor, _ := middleware.UserFromContext(c)
	h.audit.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventClientDeleted,
		Severity:      models.SeverityWarning,
		ActorUserID:   actor.ID,
		ActorUsername: actor.Username,
		ActorIP:       c.ClientIP(),
		ResourceType:  models.ResourceClient,
		ResourceID:    clientID,
		Action:        "client_delete",
		Success:       true,
	})

	c.JSON(http.StatusOK, gin.H{"deleted": clientID})
}

// RegenerateSecret replaces the client secret immediately. There is no grace
// period: the old secret stops working the moment this returns.
func (h *ClientAdminHandler) RegenerateSecret(c *gin.Context) {
	clientID := c.Param("id")
	secret, err := h.clients.RegenerateSecret(clientID)
	if err != nil {
		status, code := clientErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	actor, _ := middleware.UserFromContext(c)
	h.audit.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     models.EventClientSecretRegenerated,
		Severity:      models.SeverityWarning,
		ActorUserID:   actor.ID,
		ActorUsername: actor.Username,
		ActorIP:       c.ClientIP(),
		ResourceType:  models.ResourceClient,
		ResourceID:    clientID,
		Action:        "client_regenerate_secret",
		Success:       true,
	})

	c.JSON(http.StatusOK, gin.H{"client_id": clientID, "client_secret": secret})
}
