package domain

// RequestContext carries the authenticated caller resolved by the auth layer.
// The core uses OrganizationID for tenant scoping, UserID for attribution and
// Roles for privilege checks.
type RequestContext struct {
	UserID         string
	OrganizationID string
	Roles          []string
	IPAddress      string
	UserAgent      string
}

// HasRole reports whether the caller holds any of the given roles.
func (rc RequestContext) HasRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range rc.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}
