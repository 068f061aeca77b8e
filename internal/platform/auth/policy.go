package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Route patterns use gin's full-path syntax; keyMatch2 treats :params as wildcards.
const policyModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && regexMatch(r.act, p.act)
`

// DefaultRules grants buyers their own read endpoints and administrators everything.
var DefaultRules = [][]string{
	{RoleAdmin, "/*", "GET|POST|PUT|PATCH|DELETE"},
	{RoleUser, "/auth/me", "GET"},
	{RoleUser, "/orders/:orderId", "GET"},
	{RoleUser, "/orders/:orderId/items/:itemId/shipment", "GET"},
	{RoleUser, "/orders/:orderId/items/:itemId/download", "GET"},
}

// Policy answers route-level access questions with a casbin RBAC model.
type Policy struct {
	enforcer *casbin.Enforcer
}

// NewPolicy builds the enforcer. Administrators inherit every user grant.
func NewPolicy(rules [][]string) (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("load access model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("build access enforcer: %w", err)
	}
	if len(rules) > 0 {
		if _, err := enforcer.AddPolicies(rules); err != nil {
			return nil, fmt.Errorf("load access rules: %w", err)
		}
	}
	if _, err := enforcer.AddGroupingPolicy(RoleAdmin, RoleUser); err != nil {
		return nil, fmt.Errorf("load role hierarchy: %w", err)
	}
	return &Policy{enforcer: enforcer}, nil
}

// Allowed reports whether role may call method on the route pattern.
func (p *Policy) Allowed(role, route, method string) (bool, error) {
	return p.enforcer.Enforce(role, route, method)
}
