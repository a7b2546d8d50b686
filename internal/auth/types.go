package auth

import "context"

// Result holds the outcome of a successful credential check.
type Result struct {
	UserID     string // local user ID, empty for remote-only identities
	Username   string
	Email      string
	FullName   string
	ExternalID string // identifier assigned by a remote credential API
	Success    bool
}

// Provider verifies end-user credentials. Implementations must not reveal
// whether the email or the password was wrong.
type Provider interface {
	// Authenticate verifies the email/password pair.
	// Returns ErrInvalidCredentials on any failure that should be shown to
	// the end user.
	Authenticate(ctx context.Context, email, password string) (*Result, error)

	// Name returns provider name for logging
	Name() string
}
