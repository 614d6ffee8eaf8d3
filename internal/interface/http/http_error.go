package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/roamgrid/roamgrid/pkg/errors"
)

// HTTPError is the transport form of a failure. Every error response the API
// emits goes through this type so the envelope stays uniform.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

// asHTTPError coerces any error into an HTTPError. Errors without transport
// metadata become an opaque 500 so internals never leak into responses.
func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// abortWithDomainError maps an AppError from the service layer onto the
// envelope using its code.
func abortWithDomainError(c *gin.Context, err error) {
	abortWithError(c, NewHTTPError(statusForCode(err), apperrors.Code(err), errMessage(err), err))
}

// statusForCode translates domain error codes into HTTP statuses. Unknown
// codes fall through to 500 so a missing mapping never leaks as a success.
func statusForCode(err error) int {
	switch {
	case apperrors.IsCode(err, "invalid_input"), apperrors.IsCode(err, "invalid_token"),
		apperrors.IsCode(err, "invalid_request"):
		return http.StatusBadRequest
	case apperrors.IsCode(err, "invalid_credentials"):
		return http.StatusUnauthorized
	case apperrors.IsCode(err, "forbidden"), apperrors.IsCode(err, "invalid_nonce"),
		apperrors.IsCode(err, "account_linking_disabled"):
		return http.StatusForbidden
	case apperrors.IsCode(err, "not_found"), apperrors.IsCode(err, "user_not_found"):
		return http.StatusNotFound
	case apperrors.IsCode(err, "email_exists"), apperrors.IsCode(err, "wallet_taken"):
		return http.StatusConflict
	case apperrors.IsCode(err, "oauth_exchange_failed"):
		return http.StatusBadGateway
	case apperrors.IsCode(err, "auth_not_configured"):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
