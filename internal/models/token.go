package models

import (
	"time"
)

// TokenTypeBearer is the only token type this server issues.
const TokenTypeBearer = "Bearer"

// AccessToken is the revocation/liveness ledger for issued bearer tokens.
// Strict verification requires a live row (expires_at in the future) in
// addition to a valid signature.
type AccessToken struct {
	ID        string `gorm:"primaryKey"`
	TokenHash string `gorm:"uniqueIndex;not null"` // SHA256(signed JWT)
	RawToken  string `gorm:"-"`                    // In-memory only; never persisted to DB
	TokenType string `gorm:"not null;default:'Bearer'"`
	UserID    string `gorm:"not null;index"`
	ClientID  string `gorm:"not null;index"`
	Scope     string `gorm:"not null"` // space-separated scopes
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (t *AccessToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (AccessToken) TableName() string {
	return "access_tokens"
}
