package core

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a client error.
type ErrorType int

// Error type constants categorize errors for proper handling and retry logic.
const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeSigning indicates invalid key material. Never retryable.
	ErrorTypeSigning
	// ErrorTypeTransport indicates a network-level failure before a response
	// was received. Callers may retry idempotent operations.
	ErrorTypeTransport
	// ErrorTypeHTTP indicates the exchange rejected the request with a
	// non-2xx status.
	ErrorTypeHTTP
	// ErrorTypeDecode indicates a response or frame failed shape validation.
	ErrorTypeDecode
	// ErrorTypeConnectionExhausted indicates the streaming reconnect budget
	// was exceeded. Fatal to that connection.
	ErrorTypeConnectionExhausted
)

// String returns the string representation of the error type.
func (t ErrorType) String() string {
	return [...]string{
		"UNKNOWN",
		"SIGNING",
		"TRANSPORT",
		"HTTP",
		"DECODE",
		"CONNECTION_EXHAUSTED",
	}[t]
}

// Sentinel errors for common error conditions.
var (
	// ErrClientClosed is returned when attempting to use a closed client.
	ErrClientClosed = errors.New("client is closed")
	// ErrNotConnected is returned when writing to a websocket whose
	// underlying socket has already closed.
	ErrNotConnected = errors.New("websocket not connected")
	// ErrNoCredentials is returned when no API credentials are configured.
	ErrNoCredentials = errors.New("no credentials configured")
	// ErrConnectionExhausted is returned when the streaming reconnect budget
	// is exceeded. The owner must restart the connection explicitly.
	ErrConnectionExhausted = errors.New("reconnect attempt budget exhausted")
)

// SigningError reports unusable key material. It is fatal: no request signed
// with the same credentials will ever succeed.
type SigningError struct {
	// Reason describes what was wrong with the key material.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

func (e *SigningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signing: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("signing: %s", e.Reason)
}

func (e *SigningError) Unwrap() error { return e.Err }

// TransportError reports a network failure before any response was received.
// The request may or may not have reached the exchange, so only idempotent
// operations are safe to retry.
type TransportError struct {
	// Op is the operation that failed (e.g. "GET /trade-api/v2/markets").
	Op string
	// Err is the underlying transport error.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response from the exchange. The status and body
// are surfaced verbatim, never swallowed.
type HTTPError struct {
	// StatusCode is the HTTP status code returned by the exchange.
	StatusCode int
	// Body is the raw response body.
	Body []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Body)
}

// DecodeError reports a payload that failed shape validation at the boundary.
type DecodeError struct {
	// What identifies the payload kind being decoded.
	What string
	// Err is the underlying decode error.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ConnectionExhaustedError reports that the stream manager gave up
// reconnecting after exceeding its attempt budget.
type ConnectionExhaustedError struct {
	// Attempts is the number of consecutive failed handshakes.
	Attempts int
	// LastErr is the error from the final attempt.
	LastErr error
}

func (e *ConnectionExhaustedError) Error() string {
	return fmt.Sprintf("connection exhausted after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *ConnectionExhaustedError) Unwrap() error { return ErrConnectionExhausted }

// TypeOf classifies an error into its ErrorType.
func TypeOf(err error) ErrorType {
	var sign *SigningError
	var transport *TransportError
	var httpErr *HTTPError
	var decode *DecodeError
	switch {
	case errors.As(err, &sign):
		return ErrorTypeSigning
	case errors.As(err, &transport):
		return ErrorTypeTransport
	case errors.As(err, &httpErr):
		return ErrorTypeHTTP
	case errors.As(err, &decode):
		return ErrorTypeDecode
	case errors.Is(err, ErrConnectionExhausted):
		return ErrorTypeConnectionExhausted
	}
	return ErrorTypeUnknown
}

// IsSigningError returns true if the error stems from bad key material.
func IsSigningError(err error) bool {
	return TypeOf(err) == ErrorTypeSigning
}

// IsTransportError returns true if the error is a network failure.
// Only idempotent operations should be retried on transport errors.
func IsTransportError(err error) bool {
	return TypeOf(err) == ErrorTypeTransport
}

// IsHTTPError returns true if the exchange rejected the request, and reports
// the status code when it did.
func IsHTTPError(err error) (int, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode, true
	}
	return 0, false
}
