package interfaces

import (
	"fmt"
	"time"
)

// ValidationError reports a request parameter rejected before any network
// or compute work was started.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransportKind classifies a failed remote call.
type TransportKind int

const (
	TransportNetwork TransportKind = iota
	TransportTimeout
	TransportCanceled
	TransportStatus
	TransportContentType
	TransportService
)

// String returns the string representation of TransportKind
func (k TransportKind) String() string {
	switch k {
	case TransportTimeout:
		return "timeout"
	case TransportCanceled:
		return "canceled"
	case TransportStatus:
		return "status"
	case TransportContentType:
		return "content-type"
	case TransportService:
		return "service"
	default:
		return "network"
	}
}

// TransportError is returned by the remote client for network failures,
// timeouts, non-2xx responses, non-JSON bodies and service-side errors.
// Transport errors are never retried.
type TransportError struct {
	Kind       TransportKind
	Op         string
	URL        string
	StatusCode int
	Timeout    time.Duration
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case TransportTimeout:
		return fmt.Sprintf("%s: request took longer than %s and was aborted; try fewer numbers or check the server", e.Op, e.Timeout)
	case TransportCanceled:
		return fmt.Sprintf("%s: request canceled", e.Op)
	case TransportStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s: HTTP error %d: %s", e.Op, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s: HTTP error %d", e.Op, e.StatusCode)
	case TransportContentType:
		return fmt.Sprintf("%s: invalid response, expected JSON but got %q", e.Op, e.Message)
	case TransportService:
		return fmt.Sprintf("%s: server error: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: request failed (server may be unavailable): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: request failed", e.Op)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTimeout reports whether the call was aborted by its deadline.
func (e *TransportError) IsTimeout() bool { return e.Kind == TransportTimeout }

// DataShapeError reports a response or file whose structure does not match
// what the consumer expects (for example a missing numeric array).
type DataShapeError struct {
	Field  string
	Reason string
}

func (e *DataShapeError) Error() string {
	if e.Field == "" {
		return "unexpected data shape: " + e.Reason
	}
	return fmt.Sprintf("unexpected data shape in %q: %s", e.Field, e.Reason)
}
