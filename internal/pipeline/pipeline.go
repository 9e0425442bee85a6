// Package pipeline executes signed, paced REST requests against the exchange.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"kalshigo/internal/auth"
	"kalshigo/internal/clock"
	"kalshigo/internal/ratelimit"
	"kalshigo/pkg/core"
)

// Pipeline composes the signer, clock guard and pacer into a single Execute
// operation. Every REST call passes through one shared Pipeline so that
// pacing applies across all callers.
//
// The pipeline performs no automatic retries: a blind retry of a POST or
// DELETE could duplicate an order, and even GET retry policy belongs to the
// caller layer, which can see what it is asking for.
type Pipeline struct {
	client *resty.Client
	signer *auth.Signer
	keyID  string
	clock  *clock.Guard
	pacer  *ratelimit.Pacer
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// Response is the decoded-agnostic result of an executed request.
type Response struct {
	// StatusCode is the HTTP status code returned by the exchange.
	StatusCode int
	// Body contains the raw response body bytes.
	Body []byte
}

// Unmarshal parses the response body into the provided value.
func (r *Response) Unmarshal(v any) error {
	if err := sonic.Unmarshal(r.Body, v); err != nil {
		return &core.DecodeError{What: "response body", Err: err}
	}
	return nil
}

// New creates a Pipeline for the given credentials and configuration.
func New(cfg *core.Config, creds auth.Credentials) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if creds.KeyID == "" || creds.PrivateKey == nil {
		return nil, core.ErrNoCredentials
	}

	signer, err := auth.NewSigner(creds.PrivateKey)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(cfg.Environment.HTTPBaseURL())
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")
	client.AddContentTypeEncoder("application/json", func(w io.Writer, v any) error {
		data, err := sonic.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	})
	client.AddContentTypeDecoder("application/json", func(r io.Reader, v any) error {
		data, err := io.ReadAll(r)
		if err != nil {
			return err
		}
		return sonic.Unmarshal(data, v)
	})

	logger := zerolog.Nop()

	p := &Pipeline{
		client: client,
		signer: signer,
		keyID:  creds.KeyID,
		clock:  clock.New(),
		pacer:  ratelimit.New(cfg.PaceInterval),
		logger: logger,
	}

	client.AddRequestMiddleware(func(_ *resty.Client, req *resty.Request) error {
		p.logger.Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("http request")
		return nil
	})
	client.AddResponseMiddleware(func(_ *resty.Client, resp *resty.Response) error {
		p.logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Int("size", len(resp.Bytes())).
			Msg("http response")
		return nil
	})

	return p, nil
}

// SetLogger configures the logger used for request tracing.
func (p *Pipeline) SetLogger(logger zerolog.Logger) {
	p.logger = logger
}

// SetBaseURL overrides the REST base URL, primarily for tests.
func (p *Pipeline) SetBaseURL(url string) {
	p.client.SetBaseURL(url)
}

// Pacer exposes the shared pacer so the streaming side can pace its own
// signed handshake through the same window.
func (p *Pipeline) Pacer() *ratelimit.Pacer {
	return p.pacer
}

// SignedHeaders produces authentication headers for an arbitrary method and
// path using one fresh timestamp. Used for the websocket handshake.
func (p *Pipeline) SignedHeaders(method, path string) (map[string]string, error) {
	return p.signer.Headers(p.keyID, p.clock.NowMs(), method, path)
}

// Execute runs one request through the full sequence: pacer permit, single
// timestamp, signature, transport call, classification. The pacer critical
// section ends before the network send begins, so in-flight requests do not
// serialize behind one another.
func (p *Pipeline) Execute(ctx context.Context, req *core.Request) (*Response, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, core.ErrClientClosed
	}
	p.mu.RUnlock()

	if err := p.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	// One timestamp per call, reused for the signature and any body
	// timestamp fields, so the two can never disagree.
	timestampMs := p.clock.NowMs()
	headers, err := p.signer.Headers(p.keyID, timestampMs, req.Method, req.Path)
	if err != nil {
		return nil, err
	}

	r := p.client.R().SetContext(ctx).SetHeaders(headers)
	if req.Query != nil {
		r.SetQueryParams(paramsToStringMap(req.Query))
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	var resp *resty.Response
	switch req.Method {
	case "GET":
		resp, err = r.Get(req.Path)
	case "POST":
		resp, err = r.Post(req.Path)
	case "PUT":
		resp, err = r.Put(req.Path)
	case "DELETE":
		resp, err = r.Delete(req.Path)
	default:
		return nil, fmt.Errorf("unsupported http method: %s", req.Method)
	}

	if err != nil {
		p.logger.Error().Err(err).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("http request failed")
		return nil, &core.TransportError{
			Op:  req.Method + " " + req.Path,
			Err: err,
		}
	}

	body := resp.Bytes()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &core.HTTPError{
			StatusCode: resp.StatusCode(),
			Body:       body,
		}
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       body,
	}, nil
}

// Close releases the underlying transport. In-flight requests are allowed to
// finish or fail naturally.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.client.Close()
}

func paramsToStringMap(params core.Params) map[string]string {
	result := make(map[string]string, len(params))
	for k, v := range params {
		switch val := v.(type) {
		case string:
			result[k] = val
		case int:
			result[k] = strconv.Itoa(val)
		case int64:
			result[k] = strconv.FormatInt(val, 10)
		case bool:
			result[k] = strconv.FormatBool(val)
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}
