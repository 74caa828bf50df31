package auth

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned when an operation needs a signed-in user and there is none.
var ErrNoSession = errors.New("no active session")

// ErrInvalidRecoveryLink is returned when a pasted recovery link carries no usable tokens.
var ErrInvalidRecoveryLink = errors.New("invalid or expired recovery link")

// ErrNotImage is returned when an avatar upload is not an image.
var ErrNotImage = errors.New("avatar must be an image")

// Error is a failure reported by the auth provider.
type Error struct {
	StatusCode int
	Code       string // provider error code, e.g. "invalid_credentials"
	Message    string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("auth: HTTP %d: %s", e.StatusCode, e.Message)
}

func asError(err error) (*Error, bool) {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}

// IsInvalidCredentials reports whether err is a rejected email/password pair.
func IsInvalidCredentials(err error) bool {
	e, ok := asError(err)
	if !ok {
		return false
	}
	return e.Code == "invalid_credentials" || e.Code == "invalid_grant"
}

// IsEmailNotConfirmed reports whether err means the account exists but is unconfirmed.
func IsEmailNotConfirmed(err error) bool {
	e, ok := asError(err)
	return ok && e.Code == "email_not_confirmed"
}
