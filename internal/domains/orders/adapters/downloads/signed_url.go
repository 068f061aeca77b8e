package downloads

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

const defaultTTL = 15 * time.Minute

var (
	ErrMissingSecret = errors.New("download signing secret is empty")
	ErrInvalidToken  = errors.New("invalid download token")
)

var _ ports.DownloadLinker = (*SignedURLLinker)(nil)

// Claims bind a download token to one buyer and one purchased item.
type Claims struct {
	ProductID string `json:"pid"`
	ItemID    string `json:"iid"`
	jwt.RegisteredClaims
}

// SignedURLLinker issues object-store URLs carrying an HS256 token that the store validates.
type SignedURLLinker struct {
	baseURL *url.URL
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

type Option func(*SignedURLLinker)

func WithTTL(ttl time.Duration) Option {
	return func(l *SignedURLLinker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *SignedURLLinker) {
		if now != nil {
			l.now = now
		}
	}
}

// NewSignedURLLinker validates the base URL and secret.
func NewSignedURLLinker(baseURL, secret string, opts ...Option) (*SignedURLLinker, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse download base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("download base url %q must be absolute", baseURL)
	}
	l := &SignedURLLinker{
		baseURL: parsed,
		secret:  []byte(secret),
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *SignedURLLinker) Link(_ context.Context, req ports.DownloadRequest) (*ports.DownloadReference, error) {
	if req.UserID == "" || req.ProductID == "" {
		return nil, errors.New("download request needs a user and a product")
	}
	issued := l.now()
	expires := issued.Add(l.ttl)
	claims := Claims{
		ProductID: req.ProductID,
		ItemID:    req.ItemID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.UserID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(l.secret)
	if err != nil {
		return nil, fmt.Errorf("sign download token: %w", err)
	}

	target := *l.baseURL
	target.Path = path.Join("/", l.baseURL.Path, ObjectKey(req.ProductID))
	query := target.Query()
	query.Set("token", token)
	target.RawQuery = query.Encode()

	return &ports.DownloadReference{URL: target.String(), ExpiresAt: expires}, nil
}

// Verify parses a token issued by Link.
func (l *SignedURLLinker) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return l.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ObjectKey is the object-store key of a product's digital asset.
func ObjectKey(productID string) string {
	return path.Join("products", productID, "digital")
}
