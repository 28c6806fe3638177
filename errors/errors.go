package errors

import (
	"fmt"
	"time"
)

// AppError is the unified error type of the module.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the caller may retry the operation.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Sentinels for errors.Is matching. Only the code is compared.
var (
	ErrNoAvailablePort = &AppError{Code: ErrCodeNoAvailablePort}
	ErrStartTimeout    = &AppError{Code: ErrCodeStartTimeout}
	ErrStopTimeout     = &AppError{Code: ErrCodeStopTimeout}
	ErrBindFailed      = &AppError{Code: ErrCodeBindFailed}
	ErrInvalidInput    = &AppError{Code: ErrCodeInvalidInput}
)

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Lifecycle constructors ---

// NoAvailablePort reports that every port in [start, end) was in use on host.
func NoAvailablePort(host string, start, end int) *AppError {
	return &AppError{
		Code: ErrCodeNoAvailablePort, Message: fmt.Sprintf("no available port on %s in range [%d, %d)", host, start, end),
		Retryable: true,
		Details:   map[string]any{"host": host, "start": start, "end": end},
	}
}

// StartTimeout reports that the listener at addr was not ready after timeout.
func StartTimeout(addr string, timeout time.Duration) *AppError {
	return &AppError{
		Code: ErrCodeStartTimeout, Message: fmt.Sprintf("timed out after %s while starting server on %s", timeout, addr),
		Retryable: true,
		Details:   map[string]any{"addr": addr, "timeout": timeout.String()},
	}
}

// StopTimeout reports that the runner serving addr did not exit after timeout.
func StopTimeout(addr string, timeout time.Duration) *AppError {
	return &AppError{
		Code: ErrCodeStopTimeout, Message: fmt.Sprintf("timed out after %s while stopping server on %s", timeout, addr),
		Retryable: true,
		Details:   map[string]any{"addr": addr, "timeout": timeout.String()},
	}
}

// BindFailed reports a bind error on addr that is not "address in use".
func BindFailed(addr string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeBindFailed, Message: fmt.Sprintf("failed to bind %s", addr),
		Details: map[string]any{"addr": addr}, Cause: cause,
	}
}

// --- Common constructors ---

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "unexpected server failure", Cause: cause,
	}
}
