// Package fault defines the tagged error kinds shared across the monitor core.
// Every core operation returns a *Error (or nil); panics are reserved for
// programmer mistakes.
package fault

import (
	"errors"
	"fmt"
)

// Kind categorizes an error for policy decisions (retry, skip, shutdown).
type Kind string

const (
	// InvalidFormat is returned by value constructors (pane ids, clock times).
	InvalidFormat Kind = "invalid_format"
	// EmptyInput is returned by value constructors given empty input.
	EmptyInput Kind = "empty_input"
	// InvalidInput is returned when a payload is structurally unusable,
	// e.g. a capture with fewer than three lines.
	InvalidInput Kind = "invalid_input"
	// InvalidState guards state-machine transitions; also carries the
	// "cancelled" and "no_panes" conditions.
	InvalidState Kind = "invalid_state"
	// IllegalState marks violations of aggregate rules such as role
	// reassignment or duplicate collection adds.
	IllegalState Kind = "illegal_state"
	// ValidationFailed marks retriable verification failures (clear protocol).
	ValidationFailed Kind = "validation_failed"
	// RepositoryError wraps tmux discovery/capture transport failures.
	RepositoryError Kind = "repository_error"
	// CommunicationFailed wraps send-keys transport failures.
	CommunicationFailed Kind = "communication_failed"
	// CommandExecutionFailed wraps raw command execution failures.
	CommandExecutionFailed Kind = "command_execution_failed"
	// BusinessRuleViolation marks skipped operations such as
	// ActivePaneRequired.
	BusinessRuleViolation Kind = "business_rule_violation"
	// CancellationRequested marks cooperative shutdown; never an error
	// in the user-visible sense.
	CancellationRequested Kind = "cancellation_requested"
	// RuntimeLimitExceeded marks the wall-clock cap; clean shutdown.
	RuntimeLimitExceeded Kind = "runtime_limit_exceeded"
	// UnexpectedError is the fallback for anything uncategorized.
	UnexpectedError Kind = "unexpected_error"
)

// Error is a categorized error with an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain.
// Returns UnexpectedError for nil-safe uncategorized errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return UnexpectedError
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}
