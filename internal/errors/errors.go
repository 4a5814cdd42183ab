// Package errors provides a lightweight structured error type (DocError)
// for category-based classification in the document pipeline and CLI.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// ErrorCategory represents the category of a texdoc error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig      ErrorCategory = "config"
	CategoryValidation  ErrorCategory = "validation"
	CategoryUnsupported ErrorCategory = "unsupported"

	// Output placement errors
	CategoryDestination ErrorCategory = "destination"
	CategoryEnvironment ErrorCategory = "environment"

	// Build and processing errors
	CategoryCompile    ErrorCategory = "compile"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Outer layer and infrastructure errors
	CategoryStore    ErrorCategory = "store"
	CategoryNotify   ErrorCategory = "notify"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// DocError is a structured error with category, severity, and context
type DocError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for DocError
type ContextFields map[string]any

// Error implements the error interface
func (e *DocError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *DocError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DocError) WithContext(key string, value any) *DocError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new DocError
func New(category ErrorCategory, severity ErrorSeverity, message string) *DocError {
	return &DocError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new DocError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *DocError {
	return &DocError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As finds the first DocError in err's chain.
func As(err error) (*DocError, bool) {
	var de *DocError
	if stdErrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsCategory checks if an error (or any error it wraps) belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if de, ok := As(err); ok {
		return de.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a DocError
func GetCategory(err error) ErrorCategory {
	if de, ok := As(err); ok {
		return de.Category
	}
	return CategoryInternal
}
