// Package errors provides the structured error type returned by the test
// server. Every failure carries a machine-readable code, a message, optional
// details and the underlying cause.
//
// Callers match failures with the standard library:
//
//	if errors.Is(err, goerrors.ErrStartTimeout) {
//	    // the listener never became ready
//	}
package errors
