// Package foundation provides the classified error type shared by the
// build pipeline. Errors are accumulated per run rather than raised
// immediately; the error code determines how the run reacts.
package foundation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a typed error classification.
type ErrorCode string

const (
	// ErrorCodeValidation marks a bad or missing input field. The offending
	// record is skipped and the run fails at the end.
	ErrorCodeValidation ErrorCode = "validation"
	// ErrorCodeStructural marks a dangling parent reference or a cycle.
	// The affected branch is abandoned; unaffected branches continue.
	ErrorCodeStructural ErrorCode = "structural"
	// ErrorCodeSerialization marks an I/O failure writing one output file.
	// Sibling writes continue.
	ErrorCodeSerialization ErrorCode = "serialization"
	ErrorCodeConfiguration ErrorCode = "configuration"
	ErrorCodeInternal      ErrorCode = "internal"
)

// Severity indicates the importance/impact of an error.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityFatal   Severity = "fatal"
)

// Fields represents structured context data.
type Fields map[string]any

// ClassifiedError provides structured error information with context.
type ClassifiedError struct {
	Code      ErrorCode `json:"code"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Context   Fields    `json:"context,omitempty"`
	Cause     error     `json:"cause,omitempty"`
	Entity    string    `json:"entity,omitempty"`
	Component string    `json:"component,omitempty"`
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	var parts []string

	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Component))
	}
	if e.Entity != "" {
		parts = append(parts, fmt.Sprintf("entity=%s", e.Entity))
	}
	parts = append(parts, fmt.Sprintf("code=%s", e.Code), e.Message)
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for creating classified errors.
type ErrorBuilder struct {
	err *ClassifiedError
}

// NewError creates a new error builder.
func NewError(code ErrorCode, message string) *ErrorBuilder {
	return &ErrorBuilder{
		err: &ClassifiedError{
			Code:     code,
			Severity: SeverityError,
			Message:  message,
			Context:  make(Fields),
		},
	}
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity Severity) *ErrorBuilder {
	b.err.Severity = severity
	return b
}

// WithCause sets the underlying cause.
func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.Cause = cause
	return b
}

// WithContext adds context fields.
func (b *ErrorBuilder) WithContext(fields Fields) *ErrorBuilder {
	for k, v := range fields {
		b.err.Context[k] = v
	}
	return b
}

// WithEntity names the record or node the error concerns.
func (b *ErrorBuilder) WithEntity(entity string) *ErrorBuilder {
	b.err.Entity = entity
	return b
}

// WithComponent sets the component context.
func (b *ErrorBuilder) WithComponent(component string) *ErrorBuilder {
	b.err.Component = component
	return b
}

// Build returns the constructed error.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return b.err
}

// Predefined error constructors for the build taxonomy.

func ValidationError(message string) *ErrorBuilder {
	return NewError(ErrorCodeValidation, message).WithSeverity(SeverityWarning)
}

func StructuralError(message string) *ErrorBuilder {
	return NewError(ErrorCodeStructural, message)
}

func SerializationError(message string) *ErrorBuilder {
	return NewError(ErrorCodeSerialization, message)
}

func ConfigurationError(message string) *ErrorBuilder {
	return NewError(ErrorCodeConfiguration, message).WithSeverity(SeverityFatal)
}

// IsErrorCode checks if an error has a specific error code.
func IsErrorCode(err error, code ErrorCode) bool {
	var classified *ClassifiedError
	if AsClassified(err, &classified) {
		return classified.Code == code
	}
	return false
}

// AsClassified extracts a ClassifiedError from an error chain.
func AsClassified(err error, target **ClassifiedError) bool {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		*target = classified
		return true
	}
	return false
}
