package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/services"
	"github.com/go-ssohub/ssohub/internal/store"
)

// AuditAdminHandler exposes the audit trail under /api/admin/audit.
type AuditAdminHandler struct {
	audit *services.AuditService
}

func NewAuditAdminHandler(audit *services.AuditService) *AuditAdminHandler {
	return &AuditAdminHandler{audit: audit}
}

func auditFiltersFromQuery(c *gin.Context) store.AuditFilters {
	filters := store.AuditFilters{
		EventType:    models.EventType(c.Query("event_type")),
		ActorUserID:  c.Query("actor_user_id"),
		ResourceType: models.ResourceType(c.Query("resource_type")),
		ResourceID:   c.Query("resource_id"),
		Severity:     models.EventSeverity(c.Query("severity")),
		ActorIP:      c.Query("actor_ip"),
		Success:      queryBoolPtr(c, "success"),
	}
	if raw := c.Query("start_time"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.StartTime = ts
		}
	}
	if raw := c.Query("end_time"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			filters.EndTime = ts
		}
	}
	return filters
}

func (h *AuditAdminHandler) List(c *gin.Context) {
	logs, page, err := h.audit.GetAuditLogs(auditFiltersFromQuery(c), pageParams(c))
	if err != nil {
		apiError(c, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	listResponse(c, "logs", logs, page)
}
