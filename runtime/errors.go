package runtime

import (
	"errors"
)

// SessionError classifies why a stream session stopped before a clean end.
type SessionError struct {
	// Kind indicates where in the session lifecycle the failure happened.
	Kind SessionErrorKind
	// Err is the underlying error.
	Err error
}

// SessionErrorKind classifies session errors.
type SessionErrorKind int

const (
	// SessionErrorTransport indicates the request could not be sent or the
	// response is not usable as a stream (errored outcome).
	SessionErrorTransport SessionErrorKind = iota
	// SessionErrorStreamRead indicates a failure while reading the body (errored outcome).
	SessionErrorStreamRead
	// SessionErrorCanceled indicates caller-initiated cancellation (cancelled outcome).
	SessionErrorCanceled
)

func (e *SessionError) Error() string {
	return e.Err.Error()
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// IsTransportError returns true if the stream could not be opened.
func IsTransportError(err error) bool {
	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return sessErr.Kind == SessionErrorTransport
	}
	return false
}

// IsStreamReadError returns true if reading the open stream failed.
func IsStreamReadError(err error) bool {
	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return sessErr.Kind == SessionErrorStreamRead
	}
	return false
}

// IsCanceledError returns true if the session was cancelled.
func IsCanceledError(err error) bool {
	var sessErr *SessionError
	if errors.As(err, &sessErr) {
		return sessErr.Kind == SessionErrorCanceled
	}
	return false
}
