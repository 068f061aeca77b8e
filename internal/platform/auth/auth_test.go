package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuthorizer_IsAdminIgnoresCase(t *testing.T) {
	a := NewAuthorizer(ParseEmailList(" Admin@Lucent.kr , ops@lucent.kr,,"))
	require.True(t, a.IsAdmin("admin@lucent.kr"))
	require.True(t, a.IsAdmin("OPS@LUCENT.KR "))
	require.False(t, a.IsAdmin("fan@lucent.kr"))
	require.False(t, (*Authorizer)(nil).IsAdmin("admin@lucent.kr"))
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m, err := NewTokenManager(Config{SigningSecret: "s3cret", SessionTTL: time.Hour})
	require.NoError(t, err)

	token, expires, err := m.Issue(Principal{UserID: "user-1", Email: "fan@lucent.kr"})
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	p, err := m.Parse(token)
	require.NoError(t, err)
	require.Equal(t, Principal{UserID: "user-1", Email: "fan@lucent.kr"}, p)
}

func TestTokenManager_RejectsExpiredAndForeign(t *testing.T) {
	m, err := NewTokenManager(Config{SigningSecret: "s3cret", SessionTTL: time.Minute})
	require.NoError(t, err)
	token, _, err := m.Issue(Principal{UserID: "user-1", Admin: true})
	require.NoError(t, err)

	late := m.WithClock(func() time.Time { return time.Now().Add(time.Hour) })
	_, err = late.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewTokenManager(Config{SigningSecret: "different"})
	require.NoError(t, err)
	_, err = other.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Parse("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenManager(Config{})
	require.Error(t, err)
}

func TestPolicy_DefaultRules(t *testing.T) {
	policy, err := NewPolicy(DefaultRules)
	require.NoError(t, err)

	cases := []struct {
		role, route, method string
		allowed             bool
	}{
		{RoleUser, "/orders/:orderId", "GET", true},
		{RoleUser, "/orders/:orderId/items/:itemId/shipment", "GET", true},
		{RoleUser, "/orders/:orderId/status", "PATCH", false},
		{RoleUser, "/admin/orders/bulk-update", "PATCH", false},
		{RoleAdmin, "/admin/orders/bulk-update", "PATCH", true},
		{RoleAdmin, "/orders/:orderId/items/status", "PATCH", true},
		{RoleAdmin, "/orders/:orderId", "GET", true},
	}
	for _, tc := range cases {
		allowed, err := policy.Allowed(tc.role, tc.route, tc.method)
		require.NoError(t, err)
		require.Equal(t, tc.allowed, allowed, "%s %s %s", tc.role, tc.method, tc.route)
	}
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFrom(context.Background())
	require.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{UserID: "u", Admin: true})
	p, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	require.Equal(t, RoleAdmin, p.Role())
}
