// internal/common/http/client.go
package http

import (
	"net/http"
	"time"
)

const defaultUserAgent = "yoga-guide/1.0"

// Client is the shared outbound HTTP client used by the generation and
// pose estimator clients.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}
}

// WithHTTPClient swaps the underlying client. Tests pass httptest clients.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}

// StandardClient returns an *http.Client for SDKs that manage their own
// requests. It shares the timeout and transport, and adds the user agent
// when the SDK sets none.
func (c *Client) StandardClient() *http.Client {
	hc := *c.httpClient
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	hc.Transport = &userAgentTransport{base: base, userAgent: c.userAgent}
	return &hc
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(r)
}
