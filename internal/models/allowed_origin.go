package models

import "time"

// Origin type constants
const (
	OriginTypeManual = "manual" // curated by an administrator
	OriginTypeClient = "client" // derived from a single client's redirect URIs
	OriginTypeShared = "shared" // derived origin referenced by multiple clients
)

// AllowedOrigin is an entry in the dynamic CORS/CSP allow-list. Rows are
// either curated manually or derived from active clients' redirect URIs.
type AllowedOrigin struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Origin      string `gorm:"uniqueIndex;not null"     json:"origin"` // scheme://host[:port]
	Description string `gorm:"type:text"                json:"description"`
	AddedBy     string `gorm:"index"                    json:"added_by"` // User.ID, empty for system-derived rows
	IsActive    bool   `gorm:"not null"                 json:"is_active"`

	// Auto-management bookkeeping. A client-derived origin is bound to its
	// source client until a second client starts sharing it, at which point
	// the type flips to shared and the source is cleared.
	AutoAdded      bool   `gorm:"not null;default:false"    json:"auto_added"`
	SourceClientID string `gorm:"index"                     json:"source_client_id"` // empty for manual and shared origins
	OriginType     string `gorm:"not null;default:'manual'" json:"origin_type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsManaged reports whether the row is subject to auto-management. Manual
// origins are never auto-deleted or demoted.
func (o *AllowedOrigin) IsManaged() bool {
	return o.AutoAdded
}

func (AllowedOrigin) TableName() string {
	return "allowed_origins"
}
