// Package errs defines the error kinds surfaced by meshstack operations.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can react without parsing messages.
type Kind string

const (
	// ConfigMissing indicates meshstack.yaml does not exist.
	ConfigMissing Kind = "CONFIG_MISSING"
	// ConfigInvalid indicates meshstack.yaml failed parsing or structural checks.
	ConfigInvalid Kind = "CONFIG_INVALID"
	// UnknownTarget indicates a component, profile, environment or service name outside the allowed set.
	UnknownTarget Kind = "UNKNOWN_TARGET"
	// ToolUnavailable indicates a required external tool is not on PATH.
	ToolUnavailable Kind = "TOOL_UNAVAILABLE"
	// ToolInvocationFailed indicates an external tool ran and exited non-zero.
	ToolInvocationFailed Kind = "TOOL_INVOCATION_FAILED"
	// ServiceArtifactMissing indicates a service lacks the descriptor an operation needs.
	ServiceArtifactMissing Kind = "SERVICE_ARTIFACT_MISSING"
	// PreconditionFailed indicates the project is not in a state the operation can run from.
	PreconditionFailed Kind = "PRECONDITION_FAILED"
	// NotImplemented indicates a recognised but unsupported selection.
	NotImplemented Kind = "NOT_IMPLEMENTED"
)

// Error is a classified meshstack failure.
type Error struct {
	Kind Kind
	// Target names the component, service, profile or file involved, if any.
	Target  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, errs.New(errs.UnknownTarget, "")) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithTarget returns a copy of e naming target.
func (e *Error) WithTarget(target string) *Error {
	cp := *e
	cp.Target = target
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
