package mapper

import (
	"time"

	"github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
)

// CodeRequest asks for a verification code.
type CodeRequest struct {
	Email   string `json:"email" binding:"required"`
	Purpose string `json:"purpose" binding:"required"`
}

// CodeVerification submits a received code.
type CodeVerification struct {
	Email   string `json:"email" binding:"required"`
	Purpose string `json:"purpose" binding:"required"`
	Code    string `json:"code" binding:"required"`
}

// VerificationToken is returned once a code checks out.
type VerificationToken struct {
	Token string `json:"token"`
}

// SessionRequest exchanges a verification token. Name is used only when the account is created.
type SessionRequest struct {
	Token string `json:"token" binding:"required"`
	Name  string `json:"name"`
}

// User is the transport shape of an account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is the transport shape of an issued session.
type Session struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        User      `json:"user"`
}

func FromDomainUser(user *domain.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

func FromSession(session *ports.Session) Session {
	if session == nil {
		return Session{}
	}
	return Session{
		AccessToken: session.AccessToken,
		ExpiresAt:   session.ExpiresAt,
		User:        FromDomainUser(session.User),
	}
}
