package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers malformed, expired, and foreign tokens.
var ErrInvalidToken = errors.New("invalid session token")

type sessionClaims struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(cfg Config) (*TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	return &TokenManager{
		secret: []byte(cfg.SigningSecret),
		issuer: cfg.Issuer,
		ttl:    cfg.SessionTTL,
		now:    time.Now,
	}, nil
}

// WithClock returns a copy using now as its time source.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	clone := *m
	clone.now = now
	return &clone
}

// Issue signs a session for the principal.
func (m *TokenManager) Issue(p Principal) (string, time.Time, error) {
	issued := m.now()
	expires := issued.Add(m.ttl)
	claims := sessionClaims{
		Email: p.Email,
		Admin: p.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

// Parse verifies the token and returns its principal.
func (m *TokenManager) Parse(token string) (Principal, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return Principal{}, ErrInvalidToken
	}
	return Principal{UserID: claims.Subject, Email: claims.Email, Admin: claims.Admin}, nil
}
