package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Lifecycle errors
const (
	// ErrCodeNoAvailablePort indicates the whole port probe range was occupied.
	ErrCodeNoAvailablePort ErrorCode = "NO_AVAILABLE_PORT"
	// ErrCodeStartTimeout indicates the listener did not become ready in time.
	ErrCodeStartTimeout ErrorCode = "START_TIMEOUT"
	// ErrCodeStopTimeout indicates the runner did not exit in time.
	ErrCodeStopTimeout ErrorCode = "STOP_TIMEOUT"
	// ErrCodeBindFailed indicates a socket could not be bound for a reason
	// other than the address being in use.
	ErrCodeBindFailed ErrorCode = "BIND_FAILED"
)

// Input errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Server errors
const (
	// ErrCodeInternal indicates an unexpected failure inside the server.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// retryableCodes lists codes a caller may reasonably try again. The library
// itself never retries.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeNoAvailablePort: true,
	ErrCodeStartTimeout:    true,
	ErrCodeStopTimeout:     true,
	ErrCodeBindFailed:      false,
	ErrCodeInvalidInput:    false,
	ErrCodeInternal:        false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
