package templates

// BaseProps carries properties shared by every page.
type BaseProps struct {
	CSRFToken string
}

// LoginPageProps drives the credential form. The authorize-request fields are
// round-tripped as hidden inputs so a failed attempt re-renders with the same
// pending authorization.
type LoginPageProps struct {
	BaseProps
	ClientName  string
	Error       string
	ClientID    string
	RedirectURI string
	Scope       string
	State       string
}

// ErrorPageProps drives the generic error page.
type ErrorPageProps struct {
	BaseProps
	Error   string
	Message string
}
