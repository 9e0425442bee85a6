// Package kalshi is a credentialed client for the Kalshi exchange. It wraps
// the signed request pipeline with typed endpoint methods and a streaming
// facade for market data subscriptions.
package kalshi

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"kalshigo/internal/auth"
	"kalshigo/internal/pipeline"
	"kalshigo/internal/stream"
	"kalshigo/pkg/core"
)

// Client is the exchange client. One Client owns one set of credentials, one
// paced request pipeline, and at most one streaming connection.
type Client struct {
	cfg      *core.Config
	pipeline *pipeline.Pipeline
	logger   zerolog.Logger

	streamMu sync.Mutex
	stream   *Stream
}

// Option is a functional option for configuring the Client.
type Option func(*Options)

// Options holds configuration options for the Client.
type Options struct {
	Logger zerolog.Logger
	Dialer stream.Dialer
}

// WithLogger returns an option that sets the logger for the client.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithDialer returns an option that overrides the websocket dialer, used by
// tests to substitute a fake transport.
func WithDialer(d stream.Dialer) Option {
	return func(o *Options) {
		o.Dialer = d
	}
}

// New creates a Client from configuration and credentials. The private key is
// validated up front so bad key material fails here, not on the first trade.
func New(cfg *core.Config, creds auth.Credentials, opts ...Option) (*Client, error) {
	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	p, err := pipeline.New(cfg, creds)
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}
	p.SetLogger(options.Logger)

	c := &Client{
		cfg:      cfg,
		pipeline: p,
		logger:   options.Logger,
	}

	dialer := options.Dialer
	if dialer == nil {
		dialer = &stream.GWSDialer{
			PingInterval: cfg.PingInterval,
			PongWait:     cfg.PongWait,
			BufferSize:   cfg.StreamBufferSize,
		}
	}
	c.stream = newStream(cfg, dialer, p)
	c.stream.manager.SetLogger(options.Logger)

	return c, nil
}

// NewFromKeyFile creates a Client loading the PEM private key from disk.
func NewFromKeyFile(cfg *core.Config, keyID, keyPath string, opts ...Option) (*Client, error) {
	key, err := auth.LoadPrivateKeyFile(keyPath)
	if err != nil {
		return nil, err
	}
	return New(cfg, auth.Credentials{KeyID: keyID, PrivateKey: key}, opts...)
}

// Stream returns the streaming facade. The underlying connection is not
// opened until Stream.Start.
func (c *Client) Stream() *Stream {
	return c.stream
}

// SetBaseURL overrides the REST base URL, primarily for tests.
func (c *Client) SetBaseURL(url string) {
	c.pipeline.SetBaseURL(url)
}

// Close releases the HTTP transport and shuts down the streaming connection.
func (c *Client) Close() error {
	c.streamMu.Lock()
	s := c.stream
	c.streamMu.Unlock()
	if s != nil {
		_ = s.Close()
	}
	return c.pipeline.Close()
}

// get executes a GET and decodes the response envelope into out.
func (c *Client) get(ctx context.Context, path string, query core.Params, out any) error {
	req := core.NewRequest("GET", path)
	if query != nil {
		req.SetQueryParams(query)
	}
	resp, err := c.pipeline.Execute(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Unmarshal(out)
}

// post executes a POST with a JSON body and decodes the response into out.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	req := core.NewRequest("POST", path)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := c.pipeline.Execute(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Unmarshal(out)
}

// del executes a DELETE and decodes the response into out.
func (c *Client) del(ctx context.Context, path string, body, out any) error {
	req := core.NewRequest("DELETE", path)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := c.pipeline.Execute(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Unmarshal(out)
}
