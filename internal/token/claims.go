package token

import (
	"strings"

	"github.com/go-ssohub/ssohub/internal/models"
)

// OrgClaimStyle controls where organization attributes land in a claim set.
// Access tokens carry them as a nested object, ID tokens flatten them onto
// the top level, and UserInfo responses expose both forms.
type OrgClaimStyle int

const (
	OrgNested OrgClaimStyle = iota
	OrgFlattened
	OrgBoth
)

// ScopeSet parses a space-separated scope string into a boolean lookup map.
func ScopeSet(scopes string) map[string]bool {
	set := make(map[string]bool)
	for s := range strings.FieldsSeq(scopes) {
		set[s] = true
	}
	return set
}

// AppendScopeClaims adds the scope-gated identity claims for u to claims.
// This is the single source of truth shared by access-token issuance,
// ID-token issuance, and the UserInfo endpoint, so the three surfaces can
// never drift apart.
//
// profile      -> name, given_name, family_name, preferred_username
// organization -> department/team/supervisor (placement per style)
// admin        -> role, only when the user's role is admin; access tokens
//                 additionally carry admin:true
func AppendScopeClaims(
	claims map[string]any,
	u *models.User,
	scopes map[string]bool,
	style OrgClaimStyle,
) {
	if scopes["profile"] {
		claims["name"] = u.FullName()
		claims["given_name"] = u.FirstName
		claims["family_name"] = u.LastName
		claims["preferred_username"] = u.Username
	}

	if scopes["organization"] {
		if style == OrgNested || style == OrgBoth {
			claims["organization"] = map[string]any{
				"department": u.Department,
				"team":       u.Team,
				"supervisor": u.Supervisor,
			}
		}
		if style == OrgFlattened || style == OrgBoth {
			claims["department"] = u.Department
			claims["team"] = u.Team
			claims["supervisor"] = u.Supervisor
		}
		if style == OrgFlattened {
			claims["organization_verified"] = true
		}
	}

	if scopes["admin"] && u.IsAdmin() {
		claims["role"] = u.Role
		if style == OrgNested {
			claims["admin"] = true
		}
	}
}
