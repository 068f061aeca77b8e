package session

import (
	"context"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
	"github.com/KwakOri/lucent-sub001/internal/platform/auth"
)

var _ ports.SessionIssuer = (*JWTIssuer)(nil)

// JWTIssuer signs sessions with the platform token manager.
type JWTIssuer struct {
	tokens *auth.TokenManager
}

func NewJWTIssuer(tokens *auth.TokenManager) *JWTIssuer {
	return &JWTIssuer{tokens: tokens}
}

func (i *JWTIssuer) Issue(_ context.Context, user *domain.User) (*ports.Session, error) {
	token, expiresAt, err := i.tokens.Issue(auth.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Admin:  user.IsAdmin(),
	})
	if err != nil {
		return nil, err
	}
	return &ports.Session{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}
