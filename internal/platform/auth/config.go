package auth

import (
	"errors"
	"strings"
	"time"
)

const (
	defaultIssuer     = "lucent"
	defaultSessionTTL = 24 * time.Hour
)

// Config is resolved once at startup and passed explicitly.
type Config struct {
	SigningSecret string
	Issuer        string
	SessionTTL    time.Duration
	AdminEmails   []string
}

// WithDefaults fills unset optional fields.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Issuer) == "" {
		c.Issuer = defaultIssuer
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	return c
}

// Validate checks that sessions can be signed.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return errors.New("auth signing secret is required")
	}
	return nil
}

// ParseEmailList splits a comma separated allowlist.
func ParseEmailList(raw string) []string {
	var emails []string
	for _, part := range strings.Split(raw, ",") {
		if email := strings.TrimSpace(part); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}
