package auth

import "strings"

// Authorizer decides administrator status from the configured allowlist.
type Authorizer struct {
	admins map[string]struct{}
}

func NewAuthorizer(adminEmails []string) *Authorizer {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		if email = normalizeEmail(email); email != "" {
			admins[email] = struct{}{}
		}
	}
	return &Authorizer{admins: admins}
}

// IsAdmin matches case-insensitively.
func (a *Authorizer) IsAdmin(email string) bool {
	if a == nil {
		return false
	}
	_, ok := a.admins[normalizeEmail(email)]
	return ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
