package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Purpose scopes a verification code to one flow.
type Purpose string

const (
	PurposeSignup        Purpose = "SIGNUP"
	PurposeLogin         Purpose = "LOGIN"
	PurposeResetPassword Purpose = "RESET_PASSWORD"
)

const (
	CodeLength     = 6
	CodeTTL        = 10 * time.Minute
	ResendCooldown = 60 * time.Second
	MaxAttempts    = 5
	TokenTTL       = 10 * time.Minute
)

var (
	ErrInvalidPurpose  = errors.New("unknown verification purpose")
	ErrCooldown        = errors.New("verification code was requested too recently")
	ErrCodeExpired     = errors.New("verification code has expired")
	ErrCodeMismatch    = errors.New("verification code does not match")
	ErrAlreadyVerified = errors.New("verification code was already used")
	ErrTooManyAttempts = errors.New("too many wrong verification attempts")
	ErrNotVerified     = errors.New("verification has not been completed")
	ErrTokenExpired    = errors.New("verification token has expired")
	ErrTokenConsumed   = errors.New("verification token was already used")
)

// CooldownError reports how long the caller must wait before requesting another code.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrCooldown, e.RetryAfter.Round(time.Second))
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldown
}

// ParsePurpose accepts only the known purposes.
func ParsePurpose(raw string) (Purpose, error) {
	switch p := Purpose(strings.ToUpper(strings.TrimSpace(raw))); p {
	case PurposeSignup, PurposeLogin, PurposeResetPassword:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPurpose, raw)
	}
}

// Verification tracks one issued email code and the token it unlocks.
type Verification struct {
	Email      string
	Purpose    Purpose
	CodeHash   string
	Token      string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	ConsumedAt *time.Time
	Attempts   int
}

// NewVerification starts a fresh verification; earlier attempts are forgotten.
func NewVerification(email string, purpose Purpose, codeHash string, now time.Time) *Verification {
	return &Verification{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  codeHash,
		IssuedAt:  now,
		ExpiresAt: now.Add(CodeTTL),
	}
}

// CooldownRemaining is zero once a new code may be issued.
func (v *Verification) CooldownRemaining(now time.Time) time.Duration {
	if v == nil {
		return 0
	}
	remaining := v.IssuedAt.Add(ResendCooldown).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CheckAttemptable reports whether a code may still be checked.
func (v *Verification) CheckAttemptable(now time.Time) error {
	if v.VerifiedAt != nil {
		return ErrAlreadyVerified
	}
	if v.Attempts >= MaxAttempts {
		return ErrTooManyAttempts
	}
	if !now.Before(v.ExpiresAt) {
		return ErrCodeExpired
	}
	return nil
}

// RecordMismatch counts a wrong code and reports the resulting state.
func (v *Verification) RecordMismatch() error {
	v.Attempts++
	if v.Attempts >= MaxAttempts {
		return ErrTooManyAttempts
	}
	return ErrCodeMismatch
}

// MarkVerified attaches the one-time exchange token.
func (v *Verification) MarkVerified(token string, now time.Time) {
	v.Token = token
	v.VerifiedAt = &now
}

// Consume spends the token exactly once.
func (v *Verification) Consume(now time.Time) error {
	if v.VerifiedAt == nil || v.Token == "" {
		return ErrNotVerified
	}
	if v.ConsumedAt != nil {
		return ErrTokenConsumed
	}
	if !now.Before(v.VerifiedAt.Add(TokenTTL)) {
		return ErrTokenExpired
	}
	v.ConsumedAt = &now
	return nil
}

// RetainUntil is the last instant the record is useful.
func (v *Verification) RetainUntil() time.Time {
	until := v.ExpiresAt
	if v.VerifiedAt != nil {
		if tokenEnd := v.VerifiedAt.Add(TokenTTL); tokenEnd.After(until) {
			until = tokenEnd
		}
	}
	return until
}
