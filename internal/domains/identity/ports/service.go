package ports

import (
	"context"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
)

// Service exposes identity use cases to adapters.
type Service interface {
	RequestCode(ctx context.Context, email, purpose string) error
	VerifyCode(ctx context.Context, email, purpose, code string) (string, error)
	ExchangeToken(ctx context.Context, token, name string) (*Session, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}
