// Copyright 2025 NetApp, Inc. All Rights Reserved.

package errors

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// ///////////////////////////////////////////////////////////////////////////
// Wrappers for standard library errors package
// ///////////////////////////////////////////////////////////////////////////

func New(message string) error {
	return errors.New(message)
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}

// ///////////////////////////////////////////////////////////////////////////
// Wrappers for multierr
// ///////////////////////////////////////////////////////////////////////////

// Append combines err with next; nil values are dropped.
func Append(err, next error) error {
	return multierr.Append(err, next)
}

// Errors returns the individual errors that make up err, or nil when err is nil.
func Errors(err error) []error {
	return multierr.Errors(err)
}

// ///////////////////////////////////////////////////////////////////////////
// notFoundError
// ///////////////////////////////////////////////////////////////////////////

type notFoundError struct {
	inner   error
	message string
}

func (e *notFoundError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *notFoundError) Unwrap() error { return e.inner }

func NotFoundError(message string, a ...any) error {
	if len(a) == 0 {
		return &notFoundError{message: message}
	}
	return &notFoundError{message: fmt.Sprintf(message, a...)}
}

func WrapWithNotFoundError(err error, message string, a ...any) error {
	return &notFoundError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *notFoundError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// backendUnavailableError
// ///////////////////////////////////////////////////////////////////////////

// backendUnavailableError is returned when share metadata (capacity, listing) cannot be retrieved from the backend.
type backendUnavailableError struct {
	inner   error
	message string
}

func (e *backendUnavailableError) Error() string {
	if e.inner == nil || e.inner.Error() == "" {
		return e.message
	} else if e.message == "" {
		return e.inner.Error()
	}
	return fmt.Sprintf("%v; %v", e.message, e.inner.Error())
}

func (e *backendUnavailableError) Unwrap() error { return e.inner }

func BackendUnavailableError(message string, a ...any) error {
	if len(a) == 0 {
		return &backendUnavailableError{message: message}
	}
	return &backendUnavailableError{message: fmt.Sprintf(message, a...)}
}

func WrapWithBackendUnavailableError(err error, message string, a ...any) error {
	return &backendUnavailableError{
		inner:   err,
		message: fmt.Sprintf(message, a...),
	}
}

func IsBackendUnavailableError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *backendUnavailableError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// configError
// ///////////////////////////////////////////////////////////////////////////

// configError marks a configuration fault that must abort the operation before any storage is touched.
type configError struct {
	message string
}

func (e *configError) Error() string { return e.message }

func ConfigError(message string, a ...any) error {
	if len(a) == 0 {
		return &configError{message: message}
	}
	return &configError{message: fmt.Sprintf(message, a...)}
}

// WrapConfigError tags err as a configuration fault, keeping the original message.
func WrapConfigError(err error) error {
	if err == nil {
		return nil
	}
	return multierr.Combine(ConfigError("invalid configuration"), err)
}

func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *configError
	if errors.As(err, &errPtr) {
		return true
	}
	for _, e := range multierr.Errors(err) {
		if _, ok := e.(*configError); ok {
			return true
		}
	}
	return false
}

// ///////////////////////////////////////////////////////////////////////////
// unsupportedError
// ///////////////////////////////////////////////////////////////////////////

type unsupportedError struct {
	message string
}

func (e *unsupportedError) Error() string { return e.message }

func UnsupportedError(message string, a ...any) error {
	if len(a) == 0 {
		return &unsupportedError{message: message}
	}
	return &unsupportedError{message: fmt.Sprintf(message, a...)}
}

func IsUnsupportedError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *unsupportedError
	return errors.As(err, &errPtr)
}

// ///////////////////////////////////////////////////////////////////////////
// StateError - error that contains state and optional message
// ///////////////////////////////////////////////////////////////////////////

type StateError struct {
	State   string // The state (e.g., "Idle", "Running", "Stopped")
	Message string // Optional message
}

func (e *StateError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("state: %s; %s", e.State, e.Message)
	}
	return fmt.Sprintf("state: %s", e.State)
}

// NewStateError creates a new error with state and optional message
func NewStateError(state string, message string) error {
	return &StateError{State: state, Message: message}
}

// IsStateError returns true if the error is a state error
func IsStateError(err error) bool {
	if err == nil {
		return false
	}
	var errPtr *StateError
	return errors.As(err, &errPtr)
}
