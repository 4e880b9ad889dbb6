package domain

import "errors"

// Lookup errors
var (
	ErrPrincipalNotFound     = errors.New("user not found")
	ErrPatientNotFound       = errors.New("patient not found")
	ErrAuthorizationNotFound = errors.New("authorization request not found")
)

// Verification code errors
var (
	ErrCodeInvalid     = errors.New("incorrect code")
	ErrCodeExpired     = errors.New("code expired")
	ErrTooManyAttempts = errors.New("maximum verification attempts exceeded")
)

// State machine errors
var (
	ErrInvalidStep     = errors.New("operation not allowed in current step")
	ErrAlreadySignedIn = errors.New("session is already authenticated")
	ErrPhoneEmpty      = errors.New("phone number is required")
)

// Authorization workflow errors
var (
	ErrAuthorizationPending = errors.New("an authorization request is already pending")
	ErrAuthorizationClosed  = errors.New("authorization request is no longer pending")
	ErrPairLocked           = errors.New("another request for this doctor and patient is in progress")
)

// Session and token errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionMalformed = errors.New("stored session is malformed")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenMalformed   = errors.New("malformed token")
)

// Access errors
var (
	ErrUnauthorized = errors.New("unauthorized access")
	ErrAccessDenied = errors.New("access denied")
)

var userMessages = []struct {
	err error
	msg string
}{
	{ErrPrincipalNotFound, "user not found"},
	{ErrPatientNotFound, "patient not found"},
	{ErrAuthorizationNotFound, "authorization request not found"},
	{ErrCodeInvalid, "incorrect code"},
	{ErrCodeExpired, "code expired"},
	{ErrTooManyAttempts, "too many attempts, request a new code"},
	{ErrInvalidStep, "no verification in progress"},
	{ErrAlreadySignedIn, "already signed in, log out first"},
	{ErrPhoneEmpty, "phone number is required"},
	{ErrAuthorizationPending, "an authorization request is already pending for this patient"},
	{ErrAuthorizationClosed, "authorization request is no longer pending"},
	{ErrPairLocked, "a request for this patient is already in progress"},
}

// UserMessage converts an error into the message shown to the end user.
// Errors outside the known taxonomy collapse to a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	return "an unexpected error occurred"
}
