package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"signing", &SigningError{Reason: "nil key"}, ErrorTypeSigning},
		{"transport", &TransportError{Op: "GET /x", Err: errors.New("refused")}, ErrorTypeTransport},
		{"http", &HTTPError{StatusCode: 404}, ErrorTypeHTTP},
		{"decode", &DecodeError{What: "body", Err: errors.New("eof")}, ErrorTypeDecode},
		{"exhausted", &ConnectionExhaustedError{Attempts: 3}, ErrorTypeConnectionExhausted},
		{"wrapped transport", fmt.Errorf("call failed: %w", &TransportError{Op: "GET /x"}), ErrorTypeTransport},
		{"plain", errors.New("something"), ErrorTypeUnknown},
		{"nil", nil, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "SIGNING", ErrorTypeSigning.String())
	assert.Equal(t, "CONNECTION_EXHAUSTED", ErrorTypeConnectionExhausted.String())
}

func TestIsHTTPError(t *testing.T) {
	status, ok := IsHTTPError(&HTTPError{StatusCode: 429, Body: []byte("slow down")})
	assert.True(t, ok)
	assert.Equal(t, 429, status)

	_, ok = IsHTTPError(errors.New("not http"))
	assert.False(t, ok)
}

func TestHTTPErrorMessageKeepsBody(t *testing.T) {
	err := &HTTPError{StatusCode: 400, Body: []byte(`{"error":"bad order"}`)}
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "bad order")
}

func TestConnectionExhaustedUnwrapsToSentinel(t *testing.T) {
	err := &ConnectionExhaustedError{Attempts: 5, LastErr: errors.New("refused")}
	assert.ErrorIs(t, err, ErrConnectionExhausted)

	var typed *ConnectionExhaustedError
	assert.ErrorAs(t, err, &typed)
	assert.Equal(t, 5, typed.Attempts)
}

func TestIsHelpers(t *testing.T) {
	assert.True(t, IsSigningError(&SigningError{Reason: "bad"}))
	assert.False(t, IsSigningError(&HTTPError{StatusCode: 500}))

	assert.True(t, IsTransportError(&TransportError{Op: "GET /x"}))
	assert.False(t, IsTransportError(&SigningError{Reason: "bad"}))
}
