package errors

import stdErrors "errors"

// Sentinels matched with errors.Is through DocError.Unwrap.
var (
	// ErrDestinationExists indicates the relocation target already exists and
	// overwriting was not requested.
	ErrDestinationExists = stdErrors.New("destination already exists")
	// ErrUnsupported indicates a document feature that has not been implemented.
	ErrUnsupported = stdErrors.New("unsupported operation")
)

// Config errors

func InvalidConfig(field string, value any, reason string) *DocError {
	return New(CategoryConfig, SeverityFatal, reason).
		WithContext("field", field).
		WithContext("value", value)
}

func ConfigNotFound(path string) *DocError {
	return New(CategoryConfig, SeverityFatal, "job file not found").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *DocError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Unsupported reports a feature that was never implemented. The returned error
// wraps ErrUnsupported.
func Unsupported(feature string) *DocError {
	return Wrap(ErrUnsupported, CategoryUnsupported, SeverityError, feature+" is not implemented").
		WithContext("feature", feature)
}

// Output placement errors

func DestinationExists(path string) *DocError {
	return Wrap(ErrDestinationExists, CategoryDestination, SeverityFatal, path+" already exists, instructed not to overwrite").
		WithContext("path", path)
}

func EnvironmentError(what string, cause error) *DocError {
	return Wrap(cause, CategoryEnvironment, SeverityFatal, "cannot resolve "+what)
}

// Build pipeline errors

func ArtifactMissing(path string, cause error) *DocError {
	return Wrap(cause, CategoryCompile, SeverityFatal, "compiled artifact not found").
		WithContext("path", path)
}

func CompileFailed(pass, exitCode int, cause error) *DocError {
	return Wrap(cause, CategoryCompile, SeverityFatal, "compiler exited with failure").
		WithContext("pass", pass).
		WithContext("exit_code", exitCode)
}

func WorkspaceError(operation string, cause error) *DocError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

func RelocationFailed(target string, cause error) *DocError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "moving compiled artifact failed").
		WithContext("target", target)
}

// Outer layers

func StoreError(operation string, cause error) *DocError {
	return Wrap(cause, CategoryStore, SeverityError, "history store operation failed").
		WithContext("operation", operation)
}

func NotifyError(cause error) *DocError {
	return Wrap(cause, CategoryNotify, SeverityWarning, "build notification failed")
}

// Internal errors

func InternalError(message string, cause error) *DocError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
