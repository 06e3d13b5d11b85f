package agents

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for common SDK error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrStageNotFound indicates the requested workflow stage does not exist
	// on the project, or is not an agent stage.
	ErrStageNotFound = errors.New("stage not found")

	// ErrPathwayNotFound indicates a handler returned a pathway that does not
	// exist on the task's current stage.
	ErrPathwayNotFound = errors.New("pathway not found")

	// ErrTaskNotFound indicates the task referenced by a queue descriptor
	// could not be fetched from the platform.
	ErrTaskNotFound = errors.New("task not found")

	// ErrAmbiguousParam indicates a parameter declared both a context field
	// and a provider. Exactly one source must be given.
	ErrAmbiguousParam = errors.New("ambiguous dependency specification")

	// ErrBareParam indicates a parameter declared neither a context field nor
	// a provider, so the engine has no way to resolve it.
	ErrBareParam = errors.New("parameter has no resolvable source")

	// ErrDependencyCycle indicates a provider is reachable from itself in the
	// dependency graph.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrFieldUnavailable indicates a context field was requested but the
	// current invocation did not populate it (e.g. a record field in a
	// context built without a label row).
	ErrFieldUnavailable = errors.New("context field not populated")

	// ErrUnauthorized indicates the platform client rejected a call for
	// permission reasons. The webhook wrapper maps this to HTTP 403.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidConfig indicates the provided configuration is invalid or
	// incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error kinds categorize errors by their type.
const (
	// KindConstruction represents errors raised at registration time, before
	// any task is processed: unknown stages, ambiguous or bare parameters,
	// dependency cycles.
	KindConstruction = "construction"

	// KindResolution represents errors raised by a provider while resolving
	// a dependency graph.
	KindResolution = "resolution"

	// KindRouting represents errors where a handler returned a pathway that
	// does not exist on the current stage.
	KindRouting = "routing"

	// KindAuthorization represents permission errors from the platform
	// client.
	KindAuthorization = "authorization"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindNotFound represents errors where a resource was not found.
	KindNotFound = "not_found"
)

// Error is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category of
// error.
//
// Error implements the error interface and supports error unwrapping, making
// it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &agents.Error{
//		Op:   "Runner.Stage",
//		Kind: agents.KindConstruction,
//		Err:  agents.ErrStageNotFound,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "Runner.Stage", "deps.Solve").
	Op string

	// Kind categorizes the error (e.g., KindConstruction, KindRouting).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include stage names, parameter names, or other debugging
	// information.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("agents: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("agents: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("agents: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on the
// underlying error or on another Error's Op and Kind.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// WithContext returns a copy of the error with the provided context added.
// This is useful for attaching debugging information to errors.
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	newErr.Context = make(map[string]any, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		newErr.Context[k] = v
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewConstructionError creates a new Error with KindConstruction.
func NewConstructionError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindConstruction,
		Err:  err,
	}
}

// NewResolutionError creates a new Error with KindResolution.
func NewResolutionError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindResolution,
		Err:  err,
	}
}

// NewRoutingError creates a new Error with KindRouting.
func NewRoutingError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindRouting,
		Err:  err,
	}
}

// NewAuthorizationError creates a new Error with KindAuthorization.
func NewAuthorizationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindAuthorization,
		Err:  err,
	}
}

// NewConfigurationError creates a new Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindConfiguration,
		Err:  err,
	}
}

// NewNotFoundError creates a new Error with KindNotFound.
func NewNotFoundError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindNotFound,
		Err:  err,
	}
}

// CloseWithLog attempts to close the provided resource and logs any error at
// warning level. This is intended for use in defer statements so cleanup
// errors are not silently ignored.
//
// The name parameter should describe the resource being closed. If logger is
// nil, slog.Default() is used.
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
