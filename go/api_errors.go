package lucentserver

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	identityapp "github.com/KwakOri/lucent-sub001/internal/domains/identity/application"
	identitydomain "github.com/KwakOri/lucent-sub001/internal/domains/identity/domain"
	identityports "github.com/KwakOri/lucent-sub001/internal/domains/identity/ports"
	ordersapp "github.com/KwakOri/lucent-sub001/internal/domains/orders/application"
	ordersdomain "github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	ordersports "github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
	apierrors "github.com/KwakOri/lucent-sub001/internal/shared/errors"
)

var notFoundRoute = apierrors.ErrNotFound.WithMessage("route not found")

var responder = apierrors.NewChainedResponder(false, mapOrderError, mapIdentityError)

func respondProblem(c *gin.Context, apiErr apierrors.APIError) {
	responder.Respond(c, apiErr)
}

func respondError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

func respondBindError(c *gin.Context, err error) {
	respondProblem(c, apierrors.ErrValidation.WithMessage("request body is invalid: "+err.Error()))
}

func mapOrderError(err error) (apierrors.APIError, bool) {
	switch {
	case errors.Is(err, ordersdomain.ErrInvalidStatus):
		return apierrors.ErrInvalidStatus.WithMessage(err.Error()), true
	case errors.Is(err, ordersports.ErrNotFound):
		return apierrors.ErrNotFound, true
	case errors.Is(err, ordersapp.ErrNotEntitled):
		return apierrors.APIError{
			Status:    http.StatusForbidden,
			Message:   "a completed purchase is required to download this item",
			ErrorCode: apierrors.CodeNotEntitled,
		}, true
	case errors.Is(err, ordersapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithMessage(err.Error()), true
	case errors.Is(err, ordersapp.ErrDownloadsUnavailable):
		return apierrors.ErrInternal.WithMessage("downloads are not available"), true
	}
	return apierrors.APIError{}, false
}

func mapIdentityError(err error) (apierrors.APIError, bool) {
	var cooldown *identitydomain.CooldownError
	switch {
	case errors.As(err, &cooldown):
		seconds := int(math.Ceil(cooldown.RetryAfter.Seconds()))
		return apierrors.ErrTooManyRequests.
			WithMessage(fmt.Sprintf("please wait %d seconds before requesting another code", seconds)).
			WithDetail("retryAfterSeconds", seconds), true
	case errors.Is(err, identitydomain.ErrTooManyAttempts):
		return apierrors.ErrTooManyRequests.WithMessage("too many wrong codes, request a new one"), true
	case errors.Is(err, identityapp.ErrEmailRegistered):
		return apierrors.ErrConflict.WithMessage(err.Error()), true
	case errors.Is(err, identitydomain.ErrCodeMismatch):
		return verificationFailed(identitydomain.ErrCodeMismatch), true
	case errors.Is(err, identitydomain.ErrCodeExpired):
		return verificationFailed(identitydomain.ErrCodeExpired), true
	case errors.Is(err, identitydomain.ErrAlreadyVerified):
		return verificationFailed(identitydomain.ErrAlreadyVerified), true
	case errors.Is(err, identityapp.ErrInvalidToken):
		return verificationFailed(identityapp.ErrInvalidToken), true
	case errors.Is(err, identityapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithMessage(err.Error()), true
	case errors.Is(err, identityports.ErrNotFound):
		return apierrors.ErrNotFound, true
	}
	return apierrors.APIError{}, false
}

func verificationFailed(reason error) apierrors.APIError {
	return apierrors.APIError{
		Status:    http.StatusBadRequest,
		Message:   reason.Error(),
		ErrorCode: apierrors.CodeVerificationError,
	}
}
