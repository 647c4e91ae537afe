package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/pijaz/pijaz-go/internal/config"
	"github.com/pijaz/pijaz-go/pkg/pijaz"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates a connection failure to a Pijaz server.
// It wraps the underlying error and provides categorization for better user feedback.
type ConnectionError struct {
	// Endpoint is the URL that could not be reached, without query string.
	Endpoint string
	// Attempts is how many times the request was tried.
	Attempts int
	// Type categorizes the connection error.
	Type ConnectionErrorType
	// Reason is the underlying error.
	Reason error
}

// Error returns a user-friendly message with a hint for the error type.
func (e *ConnectionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s reaching %s", e.Type, e.Endpoint)
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " (%d attempts)", e.Attempts)
	}
	fmt.Fprintf(&b, ": %v", e.Reason)

	switch e.Type {
	case ConnectionErrorDNS:
		b.WriteString("\n\nCheck client.apiServer and client.renderServer in your configuration.")
	case ConnectionErrorTimeout:
		b.WriteString("\n\nThe server did not answer in time; consider raising client.timeout.")
	case ConnectionErrorTLS:
		b.WriteString("\n\nThe server certificate could not be verified.")
	case ConnectionErrorNetwork:
		b.WriteString("\n\nThe server refused or dropped the connection; consider raising client.retryCount.")
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// ClassifyConnectionError analyzes an error and returns a ConnectionError with the appropriate type.
// If the error is nil, returns nil.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	if err == nil {
		return nil
	}

	ce := &ConnectionError{Endpoint: endpoint, Attempts: 1, Reason: err}

	var te *pijaz.TransportError
	if errors.As(err, &te) {
		if ce.Endpoint == "" {
			ce.Endpoint = te.URL
		}
		ce.Attempts = te.Attempts
	}

	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		ce.Type = ConnectionErrorTLS
	case errors.As(err, &dnsErr):
		ce.Type = ConnectionErrorDNS
	case isTimeoutError(err):
		ce.Type = ConnectionErrorTimeout
	case isNetworkError(err.Error()):
		ce.Type = ConnectionErrorNetwork
	default:
		ce.Type = ConnectionErrorUnknown
	}
	return ce
}

// isTLSError checks if the error is related to TLS/certificate issues.
func isTLSError(err error) bool {
	if err == nil {
		return false
	}

	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	var systemRootsErr *x509.SystemRootsError

	if errors.As(err, &certErr) || errors.As(err, &hostErr) ||
		errors.As(err, &unknownAuthErr) || errors.As(err, &systemRootsErr) {
		return true
	}

	// "certificate" covers most TLS-related error messages
	errStr := err.Error()
	tlsKeywords := []string{
		"x509:",
		"certificate",
		"tls:",
		"TLS handshake",
	}

	for _, keyword := range tlsKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isTimeoutError checks if the error is a timeout.
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	// net.Error is an interface, so errors.As cannot be used directly
	for e := err; e != nil; {
		if ne, ok := e.(net.Error); ok && ne.Timeout() {
			return true
		}
		if u, ok := e.(interface{ Unwrap() error }); ok {
			e = u.Unwrap()
		} else {
			break
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// isNetworkError checks if the error string indicates a network connectivity issue.
func isNetworkError(errStr string) bool {
	networkKeywords := []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
		"EOF",
	}

	for _, keyword := range networkKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// Exit codes returned by the pijaz command.
const (
	ExitOK                = 0
	ExitGeneral           = 1
	ExitRenderUnavailable = 2
	ExitTransport         = 3
	ExitFileWrite         = 4
)

// ExitCode maps an error returned by a command to the process exit code.
// Transport failures take precedence over the render-unavailable wrapper so
// scripts can tell a network outage from a rejected request.
func ExitCode(err error) int {
	var fwe *pijaz.FileWriteError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &fwe):
		return ExitFileWrite
	case pijaz.IsTransportError(err):
		return ExitTransport
	case errors.Is(err, pijaz.ErrRenderUnavailable):
		return ExitRenderUnavailable
	default:
		return ExitGeneral
	}
}

// Describe renders err for the terminal: transport failures are classified,
// configuration errors are shown with their details.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var ce config.ConfigurationError
	if errors.As(err, &ce) {
		return ce.DetailedError()
	}

	if pijaz.IsTransportError(err) {
		prefix := ""
		if errors.Is(err, pijaz.ErrRenderUnavailable) {
			prefix = "render unavailable: "
		}
		return prefix + ClassifyConnectionError(err, "").Error()
	}

	return err.Error()
}
