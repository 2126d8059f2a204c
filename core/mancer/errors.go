package mancer

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialRequired is matched by ConfigurationErrors raised for a
	// missing API key.
	ErrCredentialRequired = errors.New("credential required")

	// ErrMancer is matched by every adapter Error.
	ErrMancer = errors.New("mancer error")

	// ErrUnknownMancer is returned when a registry id is not registered.
	ErrUnknownMancer = errors.New("unknown mancer")
)

// ConfigurationError reports an adapter that could not be constructed.
type ConfigurationError struct {
	Mancer  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Mancer, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Mancer, e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewCredentialError returns the ConfigurationError for a missing API key.
func NewCredentialError(mancerID, name string) *ConfigurationError {
	return &ConfigurationError{
		Mancer:  mancerID,
		Message: fmt.Sprintf("%s requires an API key", name),
		Err:     ErrCredentialRequired,
	}
}

// Error is a transport or API failure raised by an adapter during lookup or
// search.
type Error struct {
	Mancer     string
	Message    string
	Body       string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Mancer != "" {
		msg = e.Mancer + ": " + msg
	}
	if e.Body != "" {
		msg += " message: " + e.Body
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support.
func (e *Error) Is(target error) bool {
	return target == ErrMancer
}

// NewError wraps err as an adapter Error.
func NewError(mancerID, message string, err error) *Error {
	return &Error{Mancer: mancerID, Message: message, Err: err}
}
