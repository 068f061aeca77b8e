package lucentserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	identitymapper "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/http/mapper"
	identityports "github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
)

// AuthAPI implements email-code sign-in.
type AuthAPI struct {
	service identityports.Service
}

func NewAuthAPI(service identityports.Service) AuthAPI {
	return AuthAPI{service: service}
}

// Post /auth/verification-codes
// Mail a verification code
func (api *AuthAPI) RequestVerificationCode(c *gin.Context) {
	var body identitymapper.CodeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	if err := api.service.RequestCode(c.Request.Context(), body.Email, body.Purpose); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "verification code sent"})
}

// Post /auth/verification-codes/verify
// Check a code and receive a one-time token
func (api *AuthAPI) VerifyCode(c *gin.Context) {
	var body identitymapper.CodeVerification
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	token, err := api.service.VerifyCode(c.Request.Context(), body.Email, body.Purpose, body.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, identitymapper.VerificationToken{Token: token})
}

// Post /auth/sessions
// Exchange a verification token for a session
func (api *AuthAPI) CreateSession(c *gin.Context) {
	var body identitymapper.SessionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}
	session, err := api.service.ExchangeToken(c.Request.Context(), body.Token, body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, identitymapper.FromSession(session))
}

// Get /auth/me
// The signed-in account
func (api *AuthAPI) GetCurrentUser(c *gin.Context) {
	user, err := api.service.CurrentUser(c.Request.Context(), principalFrom(c).UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, identitymapper.FromDomainUser(user))
}
