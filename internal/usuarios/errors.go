package usuarios

import (
	"errors"
	"fmt"
)

// UnknownErrorMessage is surfaced when a failure carries no text.
const UnknownErrorMessage = "Error desconocido"

// HTTPStatusError is returned when the service answered with a non-2xx status.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// TransportError is returned when the request could not complete or the
// response body could not be decoded.
type TransportError struct {
	Message string
	Err     error
}

// newTransportError keeps the underlying error text, falling back to
// UnknownErrorMessage when there is none.
func newTransportError(err error) *TransportError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		msg = UnknownErrorMessage
	}
	return &TransportError{Message: msg, Err: err}
}

func (e *TransportError) Error() string {
	if e.Message == "" {
		return UnknownErrorMessage
	}
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FailureMessage maps a fetch error to the text carried by a Failure state.
func FailureMessage(err error) string {
	if err == nil {
		return UnknownErrorMessage
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Error()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}
