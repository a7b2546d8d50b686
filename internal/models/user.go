package models

import (
	"strings"
	"time"
)

// Role constants
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// OrgFieldUnset is the sentinel stored in organization fields when no value
// was supplied. Downstream claim builders must preserve it verbatim.
const OrgFieldUnset = "-"

type User struct {
	ID           string `gorm:"primaryKey"                json:"id"`
	Username     string `gorm:"uniqueIndex;not null"      json:"username"`
	Email        string `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string `gorm:"not null"                  json:"-"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`

	// Organization attributes. Default to OrgFieldUnset, never null/empty.
	Department string `gorm:"not null;default:'-'" json:"department"`
	Team       string `gorm:"not null;default:'-'" json:"team"`
	Supervisor string `gorm:"not null;default:'-'" json:"supervisor"`

	Role string `gorm:"not null;default:'user'" json:"role"` // "admin" or "user"

	// No column default on purpose: a default would make GORM omit the
	// zero value on insert, silently activating accounts created with
	// IsActive false. Creation paths set the field explicitly.
	IsActive bool `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// GetUsername returns the login username. Satisfies the anonymous interface
// util.GetUsernameFromContext asserts against.
func (u *User) GetUsername() string {
	return u.Username
}

// FullName joins first and last name, falling back to the username when
// neither is set.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// ValidRole reports whether role is one of the supported role values.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
