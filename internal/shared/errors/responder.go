package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Responder provides methods to send APIError responses.
type Responder struct {
	// ExposeInternal controls whether unexpected error text is copied into 500 responses.
	ExposeInternal bool
}

// NewResponder creates a new responder.
func NewResponder(exposeInternal bool) *Responder {
	return &Responder{ExposeInternal: exposeInternal}
}

// DefaultResponder hides unexpected error text from clients.
var DefaultResponder = NewResponder(false)

// Respond aborts the request with the given APIError.
func (r *Responder) Respond(c *gin.Context, apiErr APIError) {
	if apiErr.Status == 0 {
		apiErr.Status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}

// RespondError converts a standard error to an APIError and responds.
// It checks if the error is already an APIError, otherwise wraps it as internal.
func (r *Responder) RespondError(c *gin.Context, err error) {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		r.Respond(c, apiErr)
		return
	}
	if r.ExposeInternal && err != nil {
		r.Respond(c, ErrInternal.WithMessage(err.Error()))
		return
	}
	r.Respond(c, ErrInternal)
}

// NotFound sends a 404 response.
func (r *Responder) NotFound(c *gin.Context, resourceType string, identifier any) {
	r.Respond(c, NewNotFoundError(resourceType, identifier))
}

// BadRequest sends a 400 response.
func (r *Responder) BadRequest(c *gin.Context, message string) {
	r.Respond(c, ErrBadRequest.WithMessage(message))
}

// ValidationFailed sends a 400 response with field errors.
func (r *Responder) ValidationFailed(c *gin.Context, fieldErrors map[string]string) {
	r.Respond(c, NewValidationError(fieldErrors))
}

// Respond is a convenience function using the default responder.
func Respond(c *gin.Context, apiErr APIError) {
	DefaultResponder.Respond(c, apiErr)
}

// RespondError is a convenience function using the default responder.
func RespondError(c *gin.Context, err error) {
	DefaultResponder.RespondError(c, err)
}

// ErrorMapper maps domain/application errors to an APIError.
type ErrorMapper func(err error) (APIError, bool)

// ChainedResponder supports custom error mapping.
type ChainedResponder struct {
	*Responder
	mappers []ErrorMapper
}

// NewChainedResponder creates a responder with custom error mappers.
func NewChainedResponder(exposeInternal bool, mappers ...ErrorMapper) *ChainedResponder {
	return &ChainedResponder{
		Responder: NewResponder(exposeInternal),
		mappers:   mappers,
	}
}

// AddMapper adds an error mapper to the chain.
func (r *ChainedResponder) AddMapper(mapper ErrorMapper) {
	r.mappers = append(r.mappers, mapper)
}

// Resolve runs the mapper chain and returns the first match, falling back to ErrInternal.
func (r *ChainedResponder) Resolve(err error) APIError {
	for _, mapper := range r.mappers {
		if apiErr, ok := mapper(err); ok {
			return apiErr
		}
	}
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if r.ExposeInternal && err != nil {
		return ErrInternal.WithMessage(err.Error())
	}
	return ErrInternal
}

// RespondError tries each mapper before falling back to default handling.
func (r *ChainedResponder) RespondError(c *gin.Context, err error) {
	r.Respond(c, r.Resolve(err))
}

// HTTPStatusFromError extracts HTTP status from an error if possible.
func HTTPStatusFromError(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}
