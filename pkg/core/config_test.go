package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	for _, env := range []Environment{EnvDemo, EnvProd} {
		cfg := DefaultConfig(env)
		assert.NoError(t, cfg.Validate())
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig(EnvDemo)
	assert.Equal(t, 100*time.Millisecond, cfg.PaceInterval)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.ReconnectMaxAttempts)
	assert.Equal(t, 100, cfg.StreamBufferSize)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig(EnvDemo)
	cfg.Environment = "staging"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(EnvDemo)
	cfg.PaceInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(EnvDemo)
	cfg.StreamBufferSize = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig(EnvDemo)
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())
}

func TestWithChaining(t *testing.T) {
	cfg := DefaultConfig(EnvProd).
		WithTimeout(5 * time.Second).
		WithPaceInterval(50 * time.Millisecond).
		WithReconnect(500*time.Millisecond, 10*time.Second, 7).
		WithHeartbeat(5*time.Second, 15*time.Second)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 50*time.Millisecond, cfg.PaceInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.ReconnectBaseWait)
	assert.Equal(t, 10*time.Second, cfg.ReconnectMaxWait)
	assert.Equal(t, 7, cfg.ReconnectMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.PingInterval)
}

func TestEnvironmentURLs(t *testing.T) {
	assert.Equal(t, "https://demo-api.kalshi.co", EnvDemo.HTTPBaseURL())
	assert.Equal(t, "wss://demo-api.kalshi.co", EnvDemo.WSBaseURL())
	assert.Equal(t, "https://api.elections.kalshi.com", EnvProd.HTTPBaseURL())
	assert.Equal(t, "wss://api.elections.kalshi.com", EnvProd.WSBaseURL())
}

func TestRequestBuilder(t *testing.T) {
	req := NewRequest("GET", "/trade-api/v2/markets").
		SetQuery("limit", 10).
		SetQueryParams(Params{"status": "open", "cursor": "abc"})

	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, Params{"limit": 10, "status": "open", "cursor": "abc"}, req.Query)
	assert.True(t, req.Idempotent())

	order := NewRequest("POST", "/trade-api/v2/portfolio/orders").
		SetBody(map[string]any{"ticker": "X"})
	assert.False(t, order.Idempotent())
	assert.NotNil(t, order.Body)

	cancel := NewRequest("DELETE", "/trade-api/v2/portfolio/orders/oid")
	assert.False(t, cancel.Idempotent())
}
