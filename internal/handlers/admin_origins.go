package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/go-ssohub/ssohub/internal/middleware"
	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/services"
)

// OriginAdminHandler serves the CORS allow-list management under
// /api/admin/origins.
type OriginAdminHandler struct {
	origins *services.OriginService
	audit   *services.AuditService
}

func NewOriginAdminHandler(origins *services.OriginService, audit *services.AuditService) *OriginAdminHandler {
	return &OriginAdminHandler{origins: origins, audit: audit}
}

func originErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrOriginNotFound):
		return http.StatusNotFound, "origin_not_found"
	case errors.Is(err, services.ErrOriginExists):
		return http.StatusConflict, "origin_exists"
	case errors.Is(err, services.ErrInvalidOrigin):
		return http.StatusBadRequest, "invalid_origin"
	case errors.Is(err, services.ErrOriginInUse):
		return http.StatusConflict, "cannot_delete_active_client_origin"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func originIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid_origin_id", "Origin id must be numeric")
		return 0, false
	}
	return uint(id), true
}

func (h *OriginAdminHandler) List(c *gin.Context) {
	rows, err := h.origins.ListOrigins()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	stats, err := h.origins.GetOriginStats()
	if err != nil {
		apiError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"origins": rows, "stats": stats})
}

type addOriginBody struct {
	Origin      string `json:"origin" binding:"required"`
	Description string `json:"description"`
}

func (h *OriginAdminHandler) Add(c *gin.Context) {
	var body addOriginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	actor, _ := middleware.UserFromContext(c)
	row, err := h.origins.AddOrigin(c.Request.Context(), services.AddOriginRequest{
		Origin:      body.Origin,
		Description: body.Description,
		AddedBy:     actor.Username,
	})
	if err != nil {
		status, code := originErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	h.logOriginEvent(c, models.EventOriginAdded, row, "origin_add")
	c.JSON(http.StatusCreated, row)
}

func (h *OriginAdminHandler) Remove(c *gin.Context) {
	id, ok := originIDParam(c)
	if !ok {
		return
	}

	row, err := h.origins.GetOrigin(id)
	if err != nil {
		apiError(c, http.StatusNotFound, "origin_not_found", "No such origin")
		return
	}

	if err := h.origins.RemoveOrigin(c.Request.Context(), id); err != nil {
		status, code := originErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	h.logOriginEvent(c, models.EventOriginRemoved, row, "origin_remove")
	c.JSON(http.StatusOK, gin.H{"deleted": row.Origin})
}

func (h *OriginAdminHandler) Toggle(c *gin.Context) {
	id, ok := originIDParam(c)
	if !ok {
		return
	}

	row, err := h.origins.ToggleOrigin(c.Request.Context(), id)
	if err != nil {
		status, code := originErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	h.logOriginEvent(c, models.EventOriginUpdated, row, "origin_toggle")
	c.JSON(http.StatusOK, row)
}

// ConvertToManual detaches an auto-added origin from its source client.
func (h *OriginAdminHandler) ConvertToManual(c *gin.Context) {
	id, ok := originIDParam(c)
	if !ok {
		return
	}

	actor, _ := middleware.UserFromContext(c)
	row, err := h.origins.ConvertToManual(c.Request.Context(), id, actor.Username)
	if err != nil {
		status, code := originErrorCode(err)
		apiError(c, status, code, err.Error())
		return
	}

	h.logOriginEvent(c, models.EventOriginUpdated, row, "origin_convert_manual")
	c.JSON(http.StatusOK, row)
}

// Refresh drops the cached snapshot so the next request rebuilds it.
func (h *OriginAdminHandler) Refresh(c *gin.Context) {
	h.origins.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"refreshed": true})
}

func (h *OriginAdminHandler) logOriginEvent(
	c *gin.Context,
	event models.EventType,
	row *models.AllowedOrigin,
	action string,
) {
	actor, _ := middleware.UserFromContext(c)
	h.audit.Log(c.Request.Context(), services.AuditLogEntry{
		EventType:     event,
		Severity:      models.SeverityInfo,
		ActorUserID:   actor.ID,
		ActorUsername: actor.Username,
		ActorIP:       c.ClientIP(),
		ResourceType:  models.ResourceOrigin,
		ResourceID:    strconv.FormatUint(uint64(row.ID), 10),
		ResourceName:  row.Origin,
		Action:        action,
		Success:       true,
	})
}
