package lucentserver

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KwakOri/lucent-sub001/internal/platform/auth"
	apierrors "github.com/KwakOri/lucent-sub001/internal/shared/errors"
)

type accessGuard struct {
	tokens *auth.TokenManager
	policy *auth.Policy
	logger *slog.Logger
}

func newAccessGuard(tokens *auth.TokenManager, policy *auth.Policy, logger *slog.Logger) *accessGuard {
	return &accessGuard{tokens: tokens, policy: policy, logger: logger}
}

// authenticate resolves the bearer token into a principal on the request context.
func (g *accessGuard) authenticate(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" || g.tokens == nil {
		respondProblem(c, apierrors.ErrUnauthorized)
		return
	}
	principal, err := g.tokens.Parse(token)
	if err != nil {
		respondProblem(c, apierrors.ErrUnauthorized.WithMessage("session is invalid or expired"))
		return
	}
	c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), principal))
	c.Next()
}

// authorize checks the matched route pattern against the access policy. No policy means no access.
func (g *accessGuard) authorize(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c.Request.Context())
	if !ok {
		respondProblem(c, apierrors.ErrUnauthorized)
		return
	}
	if g.policy == nil {
		respondProblem(c, apierrors.ErrForbidden)
		return
	}
	allowed, err := g.policy.Allowed(principal.Role(), c.FullPath(), c.Request.Method)
	if err != nil {
		g.logger.LogAttrs(c.Request.Context(), slog.LevelError, "access policy evaluation failed",
			slog.String("route", c.FullPath()), slog.String("error", err.Error()))
		respondProblem(c, apierrors.ErrInternal)
		return
	}
	if !allowed {
		respondProblem(c, apierrors.ErrForbidden.WithMessage("administrator role required"))
		return
	}
	c.Next()
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func principalFrom(c *gin.Context) auth.Principal {
	principal, _ := auth.PrincipalFrom(c.Request.Context())
	return principal
}
