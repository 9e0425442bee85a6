package core

import "maps"

// Params holds query parameters for a request. Values are stringified by the
// transport layer.
type Params map[string]any

// Request describes one REST call to be executed by the pipeline. The path
// excludes the query string; signatures are computed over the bare path.
type Request struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Query  Params `json:"query,omitempty"`
	Body   any    `json:"body,omitempty"`
}

// NewRequest creates a request for the given method and path.
func NewRequest(method, path string) *Request {
	return &Request{
		Method: method,
		Path:   path,
	}
}

// SetQuery sets a single query parameter and returns the request for chaining.
func (r *Request) SetQuery(key string, value any) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	r.Query[key] = value
	return r
}

// SetQueryParams merges the given parameters and returns the request for
// chaining.
func (r *Request) SetQueryParams(params Params) *Request {
	if r.Query == nil {
		r.Query = make(Params)
	}
	maps.Copy(r.Query, params)
	return r
}

// SetBody sets the JSON body and returns the request for chaining.
func (r *Request) SetBody(body any) *Request {
	r.Body = body
	return r
}

// Idempotent reports whether the request is safe to retry. Only GETs qualify;
// retrying a POST or DELETE could duplicate an order.
func (r *Request) Idempotent() bool {
	return r.Method == "GET"
}
