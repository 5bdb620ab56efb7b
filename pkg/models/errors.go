package models

import "fmt"

// ErrorKind categorizes a failed command or tool invocation. The taxonomy is
// closed: classification always lands on exactly one kind, with ErrorKindUnknown
// as the catch-all.
type ErrorKind string

const (
	ErrorKindNotFound      ErrorKind = "not_found"
	ErrorKindPermission    ErrorKind = "permission"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindSyntax        ErrorKind = "syntax"
	ErrorKindNetwork       ErrorKind = "network"
	ErrorKindResourceLimit ErrorKind = "resource_limit"
	ErrorKindConfiguration ErrorKind = "configuration"
	ErrorKindUnknown       ErrorKind = "unknown"
)

// AllErrorKinds lists every ErrorKind value. Used by suggestion totality
// checks and metrics label pre-registration.
var AllErrorKinds = []ErrorKind{
	ErrorKindNotFound,
	ErrorKindPermission,
	ErrorKindTimeout,
	ErrorKindSyntax,
	ErrorKindNetwork,
	ErrorKindResourceLimit,
	ErrorKindConfiguration,
	ErrorKindUnknown,
}

// Recoverable reports whether an operation failing with this kind may succeed
// if simply retried. Only transient conditions (timeouts, network blips)
// qualify; retrying a malformed or forbidden command does not help.
func (k ErrorKind) Recoverable() bool {
	return k == ErrorKindTimeout || k == ErrorKindNetwork
}

// ToolError is the structured failure outcome of a tool or command invocation.
// An operation result carries either a success payload or exactly one
// ToolError, never both and never neither.
type ToolError struct {
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"message"`
	Recoverable bool      `json:"recoverable"`
	Suggestion  string    `json:"suggestion"`
	RawOutput   string    `json:"raw_output,omitempty"`
	ToolName    string    `json:"tool_name"`
	Namespace   string    `json:"namespace,omitempty"`
}

// Error implements the error interface so a ToolError can travel through
// error-returning call chains. Callers that need the structured fields use
// errors.As.
func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}
