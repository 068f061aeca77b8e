package application

import (
	"errors"
	"fmt"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid identity input")
	// ErrEmailRegistered is returned when signing up with an existing account.
	ErrEmailRegistered = errors.New("email is already registered")
	// ErrInvalidToken covers unknown, expired and spent verification tokens.
	ErrInvalidToken = errors.New("verification token is invalid")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrInvalidPurpose) ||
		errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrCodeExpired) ||
		errors.Is(err, domain.ErrCodeMismatch) ||
		errors.Is(err, domain.ErrAlreadyVerified) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, domain.ErrTokenConsumed) ||
		errors.Is(err, domain.ErrTokenExpired) ||
		errors.Is(err, domain.ErrNotVerified) {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return err
}
