// Package github lists branches and repository files through the GitHub
// REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/devices-agents/agentboard/internal/core"
	httpclient "github.com/devices-agents/agentboard/internal/protocol/http"
	"github.com/devices-agents/agentboard/internal/tree"
)

// Service is the name used in API errors.
const Service = "GitHub"

const (
	// DefaultBaseURL is the public GitHub API.
	DefaultBaseURL = "https://api.github.com"
	// PageSize is the per_page value used for branch listing.
	PageSize = 100
	// DefaultMaxPages bounds branch listing to 500 branches.
	DefaultMaxPages = 5
)

// ErrMissingToken is returned before any request when no token is set.
var ErrMissingToken = errors.New("GitHub token required")

// Config identifies the repository to read.
type Config struct {
	BaseURL  string
	Owner    string
	Repo     string
	MaxPages int
}

// Client reads branches and trees of one repository.
type Client struct {
	http   *httpclient.Client
	config Config
	token  string
}

// NewClient creates a client for the repository in cfg.
func NewClient(http *httpclient.Client, cfg Config, token string) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Client{http: http, config: cfg, token: token}
}

// Branch is one entry of the branches listing.
type Branch struct {
	Name string `json:"name"`
}

// TreeEntry is one entry of a recursive git tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	Mode string `json:"mode,omitempty"`
	SHA  string `json:"sha,omitempty"`
	Size int64  `json:"size,omitempty"`
}

type treeResponse struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

func (c *Client) repoURL(suffix string) string {
	return fmt.Sprintf("%s/repos/%s/%s%s", c.config.BaseURL,
		url.PathEscape(c.config.Owner), url.PathEscape(c.config.Repo), suffix)
}

func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	if c.token == "" {
		return ErrMissingToken
	}
	req, err := core.NewRequest("GET", endpoint)
	if err != nil {
		return err
	}
	req.SetToken(c.token)
	req.SetHeader("Accept", "application/vnd.github+json")

	resp, err := c.http.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to reach GitHub: %w", err)
	}
	if err := core.CheckResponse(Service, resp, false); err != nil {
		return err
	}
	return resp.DecodeJSON(v)
}

// ListBranches returns all branch names, sorted with default branches first.
// Paging stops at the first short page or after MaxPages pages.
func (c *Client) ListBranches(ctx context.Context) ([]string, error) {
	var names []string
	for page := 1; page <= c.config.MaxPages; page++ {
		endpoint := c.repoURL(fmt.Sprintf("/branches?per_page=%d&page=%d", PageSize, page))
		var batch []Branch
		if err := c.get(ctx, endpoint, &batch); err != nil {
			return nil, err
		}
		for _, b := range batch {
			names = append(names, b.Name)
		}
		if len(batch) < PageSize {
			break
		}
	}
	SortBranches(names)
	return names, nil
}

// ListTree returns every entry of ref's tree, recursively.
func (c *Client) ListTree(ctx context.Context, ref string) ([]TreeEntry, error) {
	if ref == "" {
		return nil, errors.New("ref cannot be empty")
	}
	var resp treeResponse
	if err := c.get(ctx, c.repoURL("/git/trees/"+escapeRef(ref)+"?recursive=1"), &resp); err != nil {
		return nil, err
	}
	return resp.Tree, nil
}

// escapeRef escapes each path segment of a ref so branch names with slashes
// keep their separators.
func escapeRef(ref string) string {
	segments := strings.Split(ref, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// PriorityBranches are listed first, in this order.
var PriorityBranches = []string{"main", "master", "develop"}

// SortBranches orders names in place: priority branches first, then the
// rest in locale order.
func SortBranches(names []string) {
	slices.SortStableFunc(names, func(a, b string) int {
		ap := slices.Index(PriorityBranches, a)
		bp := slices.Index(PriorityBranches, b)
		switch {
		case ap != -1 && bp != -1:
			return ap - bp
		case ap != -1:
			return -1
		case bp != -1:
			return 1
		}
		return tree.Compare(a, b)
	})
}

// DefaultBranches returns the priority branches present in names.
func DefaultBranches(names []string) []string {
	var result []string
	for _, p := range PriorityBranches {
		if slices.Contains(names, p) {
			result = append(result, p)
		}
	}
	return result
}
