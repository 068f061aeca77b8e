package application

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
)

// Service exposes identity bounded context use cases.
type Service struct {
	users         ports.UserRepository
	verifications ports.VerificationStore
	mailer        ports.Mailer
	sessions      ports.SessionIssuer
	admins        ports.AdminPolicy
	logger        *slog.Logger
	now           func() time.Time
	codes         func() (string, error)
	hashCost      int
}

type Option func(*Service)

func WithAdminPolicy(policy ports.AdminPolicy) Option {
	return func(s *Service) {
		if policy != nil {
			s.admins = policy
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeGenerator replaces the random code source; tests use it to know the code.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		if gen != nil {
			s.codes = gen
		}
	}
}

// WithHashCost sets the bcrypt cost used for code hashes.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.hashCost = cost
		}
	}
}

func NewService(users ports.UserRepository, verifications ports.VerificationStore, mailer ports.Mailer, sessions ports.SessionIssuer, opts ...Option) *Service {
	s := &Service{
		users:         users,
		verifications: verifications,
		mailer:        mailer,
		sessions:      sessions,
		admins:        ports.NoAdmins,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:           time.Now,
		codes:         randomCode,
		hashCost:      bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.Service = (*Service)(nil)

// RequestCode issues a fresh code and mails it. A new code replaces the previous one.
func (s *Service) RequestCode(ctx context.Context, rawEmail, rawPurpose string) error {
	email, purpose, err := parseTarget(rawEmail, rawPurpose)
	if err != nil {
		return mapError(err)
	}
	now := s.now()

	previous, err := s.verifications.Get(ctx, email, purpose)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return err
	}
	if wait := previous.CooldownRemaining(now); wait > 0 {
		return &domain.CooldownError{RetryAfter: wait}
	}

	if purpose == domain.PurposeSignup {
		_, err := s.users.GetByEmail(ctx, email)
		if err == nil {
			return ErrEmailRegistered
		}
		if !errors.Is(err, ports.ErrNotFound) {
			return err
		}
	}

	code, err := s.codes()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	if err := s.verifications.Save(ctx, domain.NewVerification(email, purpose, string(hash), now)); err != nil {
		return err
	}
	if err := s.mailer.SendVerificationCode(ctx, email, purpose, code); err != nil {
		return fmt.Errorf("send verification code: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "verification code issued",
		slog.String("purpose", string(purpose)),
	)
	return nil
}

// VerifyCode checks the code and returns a one-time exchange token.
func (s *Service) VerifyCode(ctx context.Context, rawEmail, rawPurpose, code string) (string, error) {
	email, purpose, err := parseTarget(rawEmail, rawPurpose)
	if err != nil {
		return "", mapError(err)
	}
	code = strings.TrimSpace(code)
	if len(code) != domain.CodeLength {
		return "", mapError(domain.ErrCodeMismatch)
	}

	v, err := s.verifications.Get(ctx, email, purpose)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return "", mapError(domain.ErrCodeExpired)
		}
		return "", err
	}
	now := s.now()
	if err := v.CheckAttemptable(now); err != nil {
		return "", mapError(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)) != nil {
		mismatch := v.RecordMismatch()
		if err := s.verifications.Save(ctx, v); err != nil {
			return "", err
		}
		return "", mapError(mismatch)
	}

	token := uuid.NewString()
	v.MarkVerified(token, now)
	if err := s.verifications.Save(ctx, v); err != nil {
		return "", err
	}
	return token, nil
}

// ExchangeToken spends a verification token for a session, creating the account on first use.
func (s *Service) ExchangeToken(ctx context.Context, token, name string) (*ports.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	now := s.now()
	v, err := s.verifications.ConsumeToken(ctx, token, now)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, mapError(err)
	}

	user, err := s.resolveUser(ctx, v, name, now)
	if err != nil {
		return nil, mapError(err)
	}
	session, err := s.sessions.Issue(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return session, nil
}

func (s *Service) resolveUser(ctx context.Context, v *domain.Verification, name string, now time.Time) (*domain.User, error) {
	admin := s.admins.IsAdmin(v.Email)
	existing, err := s.users.GetByEmail(ctx, v.Email)
	switch {
	case err == nil:
		if existing.IsAdmin() == admin {
			return existing, nil
		}
		existing.SetAdmin(admin)
		return s.users.Save(ctx, existing)
	case !errors.Is(err, ports.ErrNotFound):
		return nil, err
	}
	if v.Purpose != domain.PurposeSignup {
		return nil, ports.ErrNotFound
	}
	user, err := domain.NewUser(uuid.NewString(), v.Email, name, admin, now)
	if err != nil {
		return nil, err
	}
	return s.users.Save(ctx, user)
}

// CurrentUser returns the account behind an authenticated session.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ports.ErrNotFound
	}
	return s.users.GetByID(ctx, userID)
}

func parseTarget(rawEmail, rawPurpose string) (string, domain.Purpose, error) {
	email, err := domain.NormalizeEmail(rawEmail)
	if err != nil {
		return "", "", err
	}
	purpose, err := domain.ParsePurpose(rawPurpose)
	if err != nil {
		return "", "", err
	}
	return email, purpose, nil
}

func randomCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", domain.CodeLength, n.Int64()), nil
}
