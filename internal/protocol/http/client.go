package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/devices-agents/agentboard/internal/core"
)

// DefaultUserAgent is sent when no other user agent is configured.
const DefaultUserAgent = "agentboard"

// Client sends core.Requests over HTTP.
type Client struct {
	httpClient *http.Client
	config     Config
}

// Config holds HTTP client configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Option is a function that configures the Client.
type Option func(*Client)

// NewClient creates a new HTTP client with the given options.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		config: Config{
			Timeout:   30 * time.Second,
			UserAgent: DefaultUserAgent,
		},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.config.Timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithTransport sets a custom round tripper.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.config.UserAgent = ua
	}
}

// Config returns the client configuration.
func (c *Client) Config() Config {
	return c.config
}

// Send executes req and returns the response. Non-2xx statuses are not
// errors at this layer; callers decide how to surface them.
func (c *Client) Send(ctx context.Context, req *core.Request) (*core.Response, error) {
	startTime := time.Now()

	httpReq, err := c.toHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	elapsed := time.Since(startTime)
	slog.Debug("http request",
		"method", req.Method(),
		"url", req.Endpoint(),
		"status", httpResp.StatusCode,
		"duration_ms", elapsed.Milliseconds())

	return c.fromHTTPResponse(req, httpResp, bodyBytes, startTime, elapsed), nil
}

func (c *Client) toHTTPRequest(ctx context.Context, req *core.Request) (*http.Request, error) {
	var bodyReader io.Reader
	if !req.Body().IsEmpty() {
		bodyReader = req.Body().Reader()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method(), req.Endpoint(), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range req.Header() {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if httpReq.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}

	return httpReq, nil
}

func (c *Client) fromHTTPResponse(req *core.Request, httpResp *http.Response, bodyBytes []byte, startTime time.Time, elapsed time.Duration) *core.Response {
	var body core.Body
	if len(bodyBytes) > 0 {
		body = core.NewRawBody(bodyBytes, httpResp.Header.Get("Content-Type"))
	} else {
		body = core.NewEmptyBody()
	}

	return core.NewResponse(req.ID(), core.NewStatus(httpResp.StatusCode, httpResp.Status)).
		WithHeader(httpResp.Header.Clone()).
		WithBody(body).
		WithTiming(core.Timing{StartTime: startTime, Total: elapsed})
}
