package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Role is the coarse permission level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

var (
	ErrInvalidEmail = errors.New("email address is invalid")
	ErrEmptyName    = errors.New("name is required")
)

// User is a storefront account.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
}

// NormalizeEmail lower-cases and validates an address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// NewUser builds a user ensuring required invariants.
func NewUser(id, email, name string, admin bool, now time.Time) (*User, error) {
	normalized, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	user := &User{ID: id, Email: normalized, Name: name, Role: RoleUser, CreatedAt: now}
	user.SetAdmin(admin)
	return user, nil
}

// SetAdmin switches the role.
func (u *User) SetAdmin(admin bool) {
	if admin {
		u.Role = RoleAdmin
		return
	}
	u.Role = RoleUser
}

// IsAdmin reports the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
