package pijaz

import (
	"errors"
	"fmt"
)

// ErrRenderUnavailable is wrapped by every error returned from a failed
// render command build.
var ErrRenderUnavailable = errors.New("render unavailable")

// TransportError indicates the HTTP exchange itself failed (connection refused,
// DNS failure, timeout, truncated body).
type TransportError struct {
	// Method is the HTTP method used.
	Method string
	// URL is the endpoint without query string, so credentials never leak.
	URL string
	// Attempts is the number of attempts made before giving up.
	Attempts int
	// Err is the underlying error of the last attempt.
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s %s failed after %d attempts: %v", e.Method, e.URL, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates the API server answered with a body that is not the
// expected JSON envelope.
type ProtocolError struct {
	Command string
	Reason  string
	Body    []byte
	Err     error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid response to %s: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid response to %s: %s", e.Command, e.Reason)
}

// Unwrap returns the underlying parse error, if any.
func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ApplicationError is a failure reported by the API server itself, either via
// a nonzero result code or a non-200 HTTP status.
type ApplicationError struct {
	Command    string
	Code       int
	StatusCode int
	Text       string
}

// Error implements the error interface.
func (e *ApplicationError) Error() string {
	if e.StatusCode != 0 && e.StatusCode != 200 {
		return fmt.Sprintf("%s failed with HTTP status %d: %s", e.Command, e.StatusCode, e.Text)
	}
	return fmt.Sprintf("%s failed with result %d: %s", e.Command, e.Code, e.Text)
}

// FileWriteError indicates the rendered image could not be written locally.
type FileWriteError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FileWriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FileWriteError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
