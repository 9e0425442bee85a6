package core

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment selects which Kalshi deployment the client talks to.
type Environment string

// Supported environments.
const (
	// EnvDemo targets the paper-trading deployment.
	EnvDemo Environment = "demo"
	// EnvProd targets the production exchange.
	EnvProd Environment = "prod"
)

// REST and websocket base URLs per environment.
const (
	demoHTTPBaseURL = "https://demo-api.kalshi.co"
	demoWSBaseURL   = "wss://demo-api.kalshi.co"
	prodHTTPBaseURL = "https://api.elections.kalshi.com"
	prodWSBaseURL   = "wss://api.elections.kalshi.com"

	// APIBasePath is the REST path prefix shared by all endpoints.
	APIBasePath = "/trade-api/v2"
	// WSPath is the path of the streaming endpoint, also used as the signed
	// path for the websocket handshake.
	WSPath = "/trade-api/ws/v2"
)

// HTTPBaseURL returns the REST base URL for the environment.
func (e Environment) HTTPBaseURL() string {
	if e == EnvProd {
		return prodHTTPBaseURL
	}
	return demoHTTPBaseURL
}

// WSBaseURL returns the websocket base URL for the environment.
func (e Environment) WSBaseURL() string {
	if e == EnvProd {
		return prodWSBaseURL
	}
	return demoWSBaseURL
}

// Config contains all configuration options for a client. It covers request
// pacing, transport timeouts, heartbeat and reconnect behavior. Exchange
// limits such as the pacing interval and clock-skew window are configuration
// rather than hard-coded values; verify the defaults against the published
// limits before going to production.
type Config struct {
	Environment Environment `json:"environment" validate:"required,oneof=demo prod"`

	// Timeout is the maximum duration for a single HTTP request.
	Timeout time.Duration `json:"timeout" validate:"min=1ms"`

	// PaceInterval is the minimum spacing between consecutive REST sends,
	// shared across all callers of one client.
	PaceInterval time.Duration `json:"pace_interval" validate:"min=1ms"`

	// SkewWindow is the accepted distance between the signed timestamp and
	// the exchange clock at receipt time.
	SkewWindow time.Duration `json:"skew_window" validate:"min=0"`

	// PingInterval is the heartbeat cadence on the streaming connection.
	PingInterval time.Duration `json:"ping_interval" validate:"min=0"`
	// PongWait is how long a heartbeat may go unanswered before the
	// connection is treated as dead.
	PongWait time.Duration `json:"pong_wait" validate:"min=0"`

	// ReconnectBaseWait is the initial reconnect backoff delay.
	ReconnectBaseWait time.Duration `json:"reconnect_base_wait" validate:"min=0"`
	// ReconnectMaxWait caps the exponential reconnect backoff.
	ReconnectMaxWait time.Duration `json:"reconnect_max_wait" validate:"min=0"`
	// ReconnectMaxAttempts is the consecutive handshake failure budget
	// before the stream is closed with a connection-exhausted error.
	// Zero means unlimited attempts.
	ReconnectMaxAttempts int `json:"reconnect_max_attempts" validate:"min=0"`

	// StreamBufferSize is the capacity of per-subscriber delivery buffers.
	StreamBufferSize int `json:"stream_buffer_size" validate:"min=1"`

	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a Config with the exchange's documented defaults:
// 100ms pacing, 10s timeout, 10s heartbeat with 20s pong wait, and capped
// exponential reconnect backoff.
func DefaultConfig(env Environment) *Config {
	return &Config{
		Environment: env,

		Timeout:      10 * time.Second,
		PaceInterval: 100 * time.Millisecond,
		SkewWindow:   30 * time.Second,

		PingInterval: 10 * time.Second,
		PongWait:     20 * time.Second,

		ReconnectBaseWait:    1 * time.Second,
		ReconnectMaxWait:     30 * time.Second,
		ReconnectMaxAttempts: 0,

		StreamBufferSize: 100,

		LogLevel: "info",
	}
}

var validate = validator.New()

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// WithTimeout sets the request timeout and returns the config for chaining.
func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.Timeout = timeout
	return c
}

// WithPaceInterval sets the minimum inter-request spacing and returns the
// config for chaining.
func (c *Config) WithPaceInterval(interval time.Duration) *Config {
	c.PaceInterval = interval
	return c
}

// WithReconnect sets the reconnect backoff parameters and returns the config
// for chaining. maxAttempts of zero means unlimited.
func (c *Config) WithReconnect(baseWait, maxWait time.Duration, maxAttempts int) *Config {
	c.ReconnectBaseWait = baseWait
	c.ReconnectMaxWait = maxWait
	c.ReconnectMaxAttempts = maxAttempts
	return c
}

// WithHeartbeat sets the heartbeat timings and returns the config for chaining.
func (c *Config) WithHeartbeat(pingInterval, pongWait time.Duration) *Config {
	c.PingInterval = pingInterval
	c.PongWait = pongWait
	return c
}
