package models

import (
	"crypto/subtle"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-ssohub/ssohub/internal/util"
)

// Client is a registered OAuth 2.0 client application.
type Client struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"-"`
	ClientID     string      `gorm:"uniqueIndex;not null"     json:"client_id"`
	ClientSecret string      `gorm:"not null"                 json:"-"` // 32-byte random hex
	Name         string      `gorm:"not null"                 json:"name"`
	RedirectURIs StringArray `gorm:"type:json"                json:"redirect_uris"`
	Scopes       string      `gorm:"not null"                 json:"scopes"` // space-separated allowed scopes
	IsActive     bool        `gorm:"not null"                 json:"is_active"`
	CreatedBy    string      `json:"created_by"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// GenerateClientSecret returns a fresh 32-byte hex secret. The secret is
// only ever shown to the caller at generation time.
func GenerateClientSecret() (string, error) {
	rBytes, err := util.CryptoRandomBytes(32)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(rBytes), nil
}

// GenerateClientSecret generates a fresh secret and stores it on the client.
func (c *Client) GenerateClientSecret() (string, error) {
	secret, err := GenerateClientSecret()
	if err != nil {
		return "", err
	}
	c.ClientSecret = secret
	return secret, nil
}

// ValidateClientSecret compares the given secret against the stored one in
// constant time.
func (c *Client) ValidateClientSecret(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(c.ClientSecret), []byte(secret)) == 1
}

// ScopeList returns the allowed scopes as a slice.
func (c *Client) ScopeList() []string {
	return strings.Fields(c.Scopes)
}

// HasRedirectURI reports whether uri exactly matches a registered redirect URI.
func (c *Client) HasRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if registered == uri {
			return true
		}
	}
	return false
}

// TableName overrides the table name used by Client to `clients`
func (Client) TableName() string {
	return "clients"
}

// StringArray is a custom type for []string that can be stored as JSON in database
type StringArray []string

// Scan implements sql.Scanner interface
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = []string{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("failed to unmarshal JSON value")
	}
}

// Value implements driver.Valuer interface
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

// Join returns a string with elements joined by the specified separator
func (s StringArray) Join(sep string) string {
	return strings.Join(s, sep)
}
