// Package errors provides the error taxonomy shared by commit-wizard packages.
//
// Sentinel errors categorize failures so callers can use errors.Is; the typed
// errors carry the details needed for diagnostics and match their sentinel.
//
// This package must not import other internal packages.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for error categorization.
var (
	// ErrGrammar indicates a commit header does not match the header grammar.
	ErrGrammar = errors.New("header grammar mismatch")

	// ErrLength indicates a commit header exceeds the configured maximum length.
	ErrLength = errors.New("header too long")

	// ErrPrecondition indicates a credential or repository context is missing.
	ErrPrecondition = errors.New("precondition failed")

	// ErrIO indicates a file or network read/write failure.
	ErrIO = errors.New("i/o failure")

	// ErrRemoteAPI indicates a non-success response from a hosting or registry API.
	ErrRemoteAPI = errors.New("remote api error")

	// ErrConfig indicates an invalid configuration value.
	ErrConfig = errors.New("invalid configuration")

	// ErrAborted indicates the user aborted an interactive flow.
	ErrAborted = errors.New("aborted by user")

	// ErrNotInteractive indicates a prompt was requested without a terminal.
	ErrNotInteractive = errors.New("interactive terminal required")

	// ErrUnknownTarget indicates a publishing target name is not registered.
	ErrUnknownTarget = errors.New("unknown publishing target")
)

// GrammarError reports a header that does not match the structured pattern.
type GrammarError struct {
	Header string
}

// Error implements the error interface.
func (e *GrammarError) Error() string {
	return fmt.Sprintf("header %q does not match type(scope)!: subject", e.Header)
}

// Is reports whether target is ErrGrammar.
func (e *GrammarError) Is(target error) bool {
	return target == ErrGrammar
}

// LengthError reports a header longer than the configured limit.
type LengthError struct {
	Limit  int
	Actual int
}

// Overflow is the number of characters above the limit.
func (e *LengthError) Overflow() int {
	return e.Actual - e.Limit
}

// Error implements the error interface.
func (e *LengthError) Error() string {
	return fmt.Sprintf("header must not be longer than %d characters, current length is %d (%d over)",
		e.Limit, e.Actual, e.Overflow())
}

// Is reports whether target is ErrLength.
func (e *LengthError) Is(target error) bool {
	return target == ErrLength
}

// PreconditionError reports a missing credential or repository context.
type PreconditionError struct {
	Target string
	Reason string
}

// NewPreconditionError creates a PreconditionError for a target.
func NewPreconditionError(target, reason string) *PreconditionError {
	return &PreconditionError{Target: target, Reason: reason}
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	if e.Target == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Target, e.Reason)
}

// Is reports whether target is ErrPrecondition.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// IOError reports a failed file or network operation on a path or URL.
type IOError struct {
	Op     string
	Path   string
	Status int
	Err    error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Op, e.Path)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: status code %d", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrIO.
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// RemoteAPIError reports a non-success API response.
type RemoteAPIError struct {
	Service string
	Op      string
	Status  int
	Err     error
}

// Error implements the error interface.
func (e *RemoteAPIError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Service, e.Op)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrRemoteAPI.
func (e *RemoteAPIError) Is(target error) bool {
	return target == ErrRemoteAPI
}

// PhaseError records the lifecycle phase and target a release run failed in.
type PhaseError struct {
	Phase  string
	Target string
	Err    error
}

// Error implements the error interface.
func (e *PhaseError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Phase, e.Target, e.Err)
}

// Unwrap returns the underlying error.
func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Is forwards to the standard library so callers can import this package alone.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As forwards to the standard library so callers can import this package alone.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New forwards to the standard library so callers can import this package alone.
func New(text string) error {
	return errors.New(text)
}
