package kinde

import (
	"errors"
	"fmt"
)

// OAuth2 error codes seen on the redirect and from the token endpoint, plus
// the codes this package raises itself.
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeInvalidGrant   = "invalid_grant"
	ErrorCodeAccessDenied   = "access_denied"
	ErrorCodeServerError    = "server_error"

	// ErrorCodeInvalidState is raised when the redirect carries a state that
	// differs from the one persisted when the flow started.
	ErrorCodeInvalidState = "invalid_state"
	// ErrorCodeInvalidIDToken is raised when a configured verifier rejects the
	// ID token.
	ErrorCodeInvalidIDToken = "invalid_id_token"
)

var (
	ErrPropertyRequired = errors.New("kinde: property required")
	ErrUnexpectedType   = errors.New("kinde: unexpected type")
	ErrUnexpectedKey    = errors.New("kinde: unexpected parameter")
	ErrInvalidType      = errors.New("kinde: invalid parameter type")
	ErrUnauthenticated  = errors.New("kinde: unauthenticated")
	ErrUnexpected       = errors.New("kinde: unexpected value")

	// ErrCancelled is returned when the user dismisses the browser before the
	// redirect completes.
	ErrCancelled = errors.New("kinde: browser interaction cancelled")
)

// PropertyRequiredError reports a missing mandatory value.
type PropertyRequiredError struct {
	Property string
}

func (e *PropertyRequiredError) Error() string {
	return fmt.Sprintf("kinde: %s is required", e.Property)
}

func (e *PropertyRequiredError) Unwrap() error { return ErrPropertyRequired }

// ParameterError reports an additional parameter the validator rejected.
// Kind is one of ErrUnexpectedType, ErrUnexpectedKey or ErrInvalidType.
type ParameterError struct {
	Kind     error
	Key      string
	Expected string // expected type name, set for ErrInvalidType
	Got      any
}

func (e *ParameterError) Error() string {
	switch e.Kind {
	case ErrUnexpectedType:
		return fmt.Sprintf("kinde: additional parameters must be a map, got %T", e.Got)
	case ErrInvalidType:
		return fmt.Sprintf("kinde: parameter %q must be of type %s, got %T", e.Key, e.Expected, e.Got)
	default:
		return fmt.Sprintf("kinde: unexpected parameter %q", e.Key)
	}
}

func (e *ParameterError) Unwrap() error { return e.Kind }

// UnauthenticatedError is returned when there is no usable session or the
// authorization server refused the request on the redirect.
type UnauthenticatedError struct {
	Code        string
	Description string
}

// Message is error_description when present, otherwise the error code.
func (e *UnauthenticatedError) Message() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

func (e *UnauthenticatedError) Error() string {
	if msg := e.Message(); msg != "" {
		return "kinde: unauthenticated: " + msg
	}
	return ErrUnauthenticated.Error()
}

func (e *UnauthenticatedError) Unwrap() error { return ErrUnauthenticated }

// OAuth2Error is an error payload returned by the token endpoint. Raw holds
// the decoded response body unchanged.
type OAuth2Error struct {
	StatusCode  int
	Code        string
	Description string
	Raw         map[string]any
}

func (e *OAuth2Error) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("kinde: token endpoint: %s", e.Code)
	}
	return fmt.Sprintf("kinde: token endpoint: %s: %s", e.Code, e.Description)
}

func (e *OAuth2Error) Unwrap() error { return ErrUnauthenticated }

// UnexpectedError reports an argument outside the supported set, such as a
// token kind other than access or id.
type UnexpectedError struct {
	Name string
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("kinde: unexpected %s", e.Name)
}

func (e *UnexpectedError) Unwrap() error { return ErrUnexpected }
