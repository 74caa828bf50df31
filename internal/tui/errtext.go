package tui

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/naveenspark/taskboard/pkg/auth"
	"github.com/naveenspark/taskboard/pkg/client"
)

const (
	msgSessionExpired = "Your session has expired. Sign in again."
	msgUnexpected     = "Unexpected error"
)

// errorText turns a failed operation into the line shown to the user.
// Errors outside the known kinds are logged.
func errorText(log logrus.FieldLogger, op string, err error) string {
	var httpErr *client.HTTPError
	var authErr *auth.Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return ""
	case auth.IsInvalidCredentials(err):
		return "Invalid email or password."
	case auth.IsEmailNotConfirmed(err):
		return "Email not confirmed. Check your inbox for the confirmation link."
	case client.IsUnauthenticated(err), errors.Is(err, auth.ErrNoSession):
		return msgSessionExpired
	case errors.As(err, &authErr):
		return authErr.Message
	case errors.As(err, &httpErr):
		return httpErr.Error()
	}
	log.WithError(err).WithField("op", op).Error("unexpected failure")
	return msgUnexpected
}
