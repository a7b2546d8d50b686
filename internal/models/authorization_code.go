package models

import "time"

// AuthorizationCode stores OAuth 2.0 authorization codes (RFC 6749).
// Codes are short-lived (default 10 minutes) and single-use: the row is
// deleted atomically when the code is redeemed.
type AuthorizationCode struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Code string `gorm:"uniqueIndex;size:36;not null"` // random UUID handed to the client

	ClientID string `gorm:"not null;index"`
	UserID   string `gorm:"not null;index"`

	RedirectURI string `gorm:"not null"`
	Scope       string `gorm:"not null"` // space-separated scopes granted at login

	ExpiresAt time.Time
	CreatedAt time.Time
}

func (a *AuthorizationCode) IsExpired() bool {
	return time.Now().After(a.ExpiresAt)
}

func (AuthorizationCode) TableName() string {
	return "authorization_codes"
}
