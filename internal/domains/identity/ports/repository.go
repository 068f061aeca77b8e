package ports

import (
	"context"
	"errors"
	"time"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
)

var ErrNotFound = errors.New("not found")

// UserRepository persists storefront accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}

// VerificationStore keeps one live verification per email and purpose.
type VerificationStore interface {
	Save(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, email string, purpose domain.Purpose) (*domain.Verification, error)
	GetByToken(ctx context.Context, token string) (*domain.Verification, error)
	// ConsumeToken spends the token atomically and returns the spent verification.
	// Exactly one of any number of concurrent callers succeeds.
	ConsumeToken(ctx context.Context, token string, now time.Time) (*domain.Verification, error)
	// PurgeExpired removes verifications that are no longer usable at before.
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}
