// Package buildkite creates pipeline builds through the Buildkite REST API.
package buildkite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/devices-agents/agentboard/internal/core"
	httpclient "github.com/devices-agents/agentboard/internal/protocol/http"
)

// Service is the name used in API errors.
const Service = "BuildKite"

// DefaultBaseURL is the public Buildkite API.
const DefaultBaseURL = "https://api.buildkite.com"

// ErrMissingToken is returned before any request when no token is set.
var ErrMissingToken = errors.New("BuildKite token required")

// BuildRequest is the body of a create-build call.
type BuildRequest struct {
	Commit  string            `json:"commit"`
	Branch  string            `json:"branch"`
	Message string            `json:"message"`
	Env     map[string]string `json:"env,omitempty"`
}

// Build is the subset of the created build the dashboard shows.
type Build struct {
	Number int    `json:"number"`
	WebURL string `json:"web_url"`
	State  string `json:"state,omitempty"`
}

// Client talks to one Buildkite API endpoint.
type Client struct {
	http    *httpclient.Client
	baseURL string
	token   string
}

// NewClient creates a client. An empty baseURL selects DefaultBaseURL.
func NewClient(http *httpclient.Client, baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{http: http, baseURL: baseURL, token: token}
}

// CreateBuild starts a build of pipeline in org. No retries are attempted.
func (c *Client) CreateBuild(ctx context.Context, org, pipeline string, br BuildRequest) (*Build, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}
	if org == "" || pipeline == "" {
		return nil, errors.New("organization and pipeline are required")
	}

	endpoint := fmt.Sprintf("%s/v2/organizations/%s/pipelines/%s/builds",
		c.baseURL, url.PathEscape(org), url.PathEscape(pipeline))
	req, err := core.NewRequest("POST", endpoint)
	if err != nil {
		return nil, err
	}
	req.SetBearer(c.token)
	if err := req.SetJSONBody(br); err != nil {
		return nil, fmt.Errorf("failed to encode build request: %w", err)
	}

	resp, err := c.http.Send(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach BuildKite: %w", err)
	}
	if err := core.CheckResponse(Service, resp, true); err != nil {
		return nil, err
	}

	var build Build
	if err := resp.DecodeJSON(&build); err != nil {
		return nil, err
	}
	slog.Info("build created", "pipeline", pipeline, "branch", br.Branch, "number", build.Number)
	return &build, nil
}
