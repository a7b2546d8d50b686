package store

import (
	"time"

	"gorm.io/gorm"

	"github.com/go-ssohub/ssohub/internal/models"
)

// AuditFilters contains filter criteria for querying audit logs
type AuditFilters struct {
	EventType    models.EventType     `json:"event_type,omitempty"`
	ActorUserID  string               `json:"actor_user_id,omitempty"`
	ResourceType models.ResourceType  `json:"resource_type,omitempty"`
	ResourceID   string               `json:"resource_id,omitempty"`
	Severity     models.EventSeverity `json:"severity,omitempty"`
	Success      *bool                `json:"success,omitempty"`
	StartTime    time.Time            `json:"start_time,omitzero"`
	EndTime      time.Time            `json:"end_time,omitzero"`
	ActorIP      string               `json:"actor_ip,omitempty"`
}

// Apply adds the filter conditions to a query.
func (f AuditFilters) Apply(query *gorm.DB) *gorm.DB {
	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}
	if f.ActorUserID != "" {
		query = query.Where("actor_user_id = ?", f.ActorUserID)
	}
	if f.ResourceType != "" {
		query = query.Where("resource_type = ?", f.ResourceType)
	}
	if f.ResourceID != "" {
		query = query.Where("resource_id = ?", f.ResourceID)
	}
	if f.Severity != "" {
		query = query.Where("severity = ?", f.Severity)
	}
	if f.Success != nil {
		query = query.Where("success = ?", *f.Success)
	}
	if !f.StartTime.IsZero() {
		query = query.Where("event_time >= ?", f.StartTime)
	}
	if !f.EndTime.IsZero() {
		query = query.Where("event_time <= ?", f.EndTime)
	}
	if f.ActorIP != "" {
		query = query.Where("actor_ip = ?", f.ActorIP)
	}
	return query
}
