package ports

import (
	"context"
	"time"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
)

// Mailer delivers verification codes.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email string, purpose domain.Purpose, code string) error
}

// Session is an issued access token.
type Session struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *domain.User
}

// SessionIssuer signs access tokens for a user.
type SessionIssuer interface {
	Issue(ctx context.Context, user *domain.User) (*Session, error)
}

// AdminPolicy decides which emails receive the administrator role.
type AdminPolicy interface {
	IsAdmin(email string) bool
}

// NoAdmins grants nobody the administrator role.
var NoAdmins AdminPolicy = noAdmins{}

type noAdmins struct{}

func (noAdmins) IsAdmin(string) bool { return false }
