package auth

import "context"

// Roles understood by the access policy.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Email  string
	Admin  bool
}

// Role maps the principal onto a policy subject.
func (p Principal) Role() string {
	if p.Admin {
		return RoleAdmin
	}
	return RoleUser
}

type principalKey struct{}

// WithPrincipal stores the principal on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
