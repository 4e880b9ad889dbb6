package handlers

import (
	"errors"
	"net/http"

	"github.com/you/careauth/domain"
)

// statusFor maps domain errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrPrincipalNotFound),
		errors.Is(err, domain.ErrPatientNotFound),
		errors.Is(err, domain.ErrAuthorizationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCodeInvalid):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrCodeExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrInvalidStep),
		errors.Is(err, domain.ErrAlreadySignedIn),
		errors.Is(err, domain.ErrAuthorizationPending),
		errors.Is(err, domain.ErrAuthorizationClosed),
		errors.Is(err, domain.ErrPairLocked):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPhoneEmpty):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrTokenMalformed),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrAccessDenied):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
