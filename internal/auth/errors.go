package auth

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a login failure.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindUnreachable        Kind = "unreachable"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindForbidden          Kind = "forbidden"
	KindServerError        Kind = "server_error"
	KindOther              Kind = "other"
	KindInvalidResponse    Kind = "invalid_response"
	KindRoleNotFound       Kind = "role_not_found"
	KindInvalidRole        Kind = "invalid_role"
	KindNoRoute            Kind = "no_route"
	KindStorage            Kind = "storage"
)

// User-visible login messages.
const (
	MsgRequired           = "Username and password are required"
	MsgUnreachable        = "Unable to connect to the server. Please ensure the backend service is running and try again."
	MsgInvalidCredentials = "User not found or invalid credentials. Please check your username and password."
	MsgForbidden          = "Access forbidden. Please check your credentials."
	MsgServerError        = "Server error. Please try again later."
	MsgGeneric            = "An error occurred during login. Please try again."
	MsgInvalidResponse    = "Invalid response from server"
	MsgRoleNotFound       = "User role not found in response. Please contact support."
	MsgNoRoute            = "Navigation route not determined"
	MsgStorage            = "Could not save the session. Please try again."
)

// retryMessage is shown while waiting delay for the next connection attempt.
func retryMessage(attempt int, delay time.Duration) string {
	return fmt.Sprintf("Connection attempt %d failed. Retrying in %s...", attempt, waitText(delay))
}

// waitText spells out whole seconds and falls back to Duration.String for
// anything finer.
func waitText(d time.Duration) string {
	switch {
	case d <= 0:
		return "0 seconds"
	case d == time.Second:
		return "1 second"
	case d%time.Second == 0:
		return fmt.Sprintf("%d seconds", d/time.Second)
	}
	return d.String()
}

// LoginError is a failed login. Message is safe to show to the user.
type LoginError struct {
	Kind     Kind
	Message  string
	Attempts int
	Err      error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("login %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("login %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *LoginError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of a login error, or "" for other errors.
func KindOf(err error) Kind {
	var le *LoginError
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// Message returns the user-visible message for err.
func Message(err error) string {
	var le *LoginError
	if errors.As(err, &le) {
		return le.Message
	}
	if err != nil {
		return MsgGeneric
	}
	return ""
}
