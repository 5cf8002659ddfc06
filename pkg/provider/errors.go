package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound reports that the upstream has no such resource.
var ErrNotFound = errors.New("not found")

// TransportError captures an unreachable upstream or a non-2xx response.
// StatusCode is 0 when no response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SchemaError reports a response body that could not be decoded.
type SchemaError struct {
	Op  string
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// AsTransportError unwraps err into a TransportError.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// AsSchemaError unwraps err into a SchemaError.
func AsSchemaError(err error) (*SchemaError, bool) {
	var se *SchemaError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsNotFound reports whether err means the resource does not exist upstream.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Retryable reports whether another attempt might succeed: network failures,
// rate limiting and 5xx responses.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	te, ok := AsTransportError(err)
	if !ok {
		return false
	}
	return te.StatusCode == 0 ||
		te.StatusCode == http.StatusTooManyRequests ||
		te.StatusCode >= http.StatusInternalServerError
}
