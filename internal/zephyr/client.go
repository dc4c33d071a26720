// Package zephyr reads test folders and test cases from Zephyr Scale and
// turns them into a catalog snapshot.
package zephyr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"

	"github.com/devices-agents/agentboard/internal/core"
	httpclient "github.com/devices-agents/agentboard/internal/protocol/http"
	"github.com/devices-agents/agentboard/internal/tree"
)

// Service is the name used in API errors.
const Service = "Zephyr"

const (
	// DefaultBaseURL is the Zephyr Scale cloud API.
	DefaultBaseURL = "https://api.zephyrscale.smartbear.com/v2"
	// MaxItems stops pagination runaway on a misbehaving server.
	MaxItems = 5000

	folderPageSize   = 500
	testCasePageSize = 100
)

// ErrMissingToken is returned before any request when no token is set.
var ErrMissingToken = errors.New("ZEPHYR_TOKEN is required")

// Folder is a Zephyr folder.
type Folder struct {
	ID         int    `json:"id"`
	ParentID   *int   `json:"parentId"`
	Name       string `json:"name"`
	FolderType string `json:"folderType"`
}

// TestCase is a Zephyr test case reduced to what the catalog keeps.
type TestCase struct {
	Key    string
	Name   string
	Status string
}

type page struct {
	StartAt    int               `json:"startAt"`
	MaxResults int               `json:"maxResults"`
	IsLast     bool              `json:"isLast"`
	Values     []json.RawMessage `json:"values"`
}

// Client is a read-only Zephyr Scale client.
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

func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	req, err := core.NewRequest("GET", endpoint)
	if err != nil {
		return err
	}
	req.SetBearer(c.token)
	req.SetHeader("Accept", "application/json")

	resp, err := c.http.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to reach Zephyr: %w", err)
	}
	if !resp.Status().IsSuccess() {
		return &core.APIError{
			Service:    Service,
			StatusCode: resp.Status().Code(),
			Message:    fmt.Sprintf("Zephyr API error: %s", resp.Status().Text()),
		}
	}
	return resp.DecodeJSON(v)
}

// paginate walks a startAt/maxResults listing and returns every raw value.
func (c *Client) paginate(ctx context.Context, path string, params url.Values, pageSize int) ([]json.RawMessage, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}
	var all []json.RawMessage
	startAt := 0
	for {
		q := url.Values{}
		for k, v := range params {
			q[k] = v
		}
		q.Set("startAt", fmt.Sprint(startAt))
		q.Set("maxResults", fmt.Sprint(pageSize))

		var p page
		if err := c.get(ctx, c.baseURL+path+"?"+q.Encode(), &p); err != nil {
			return nil, err
		}
		all = append(all, p.Values...)

		if p.IsLast || len(p.Values) == 0 {
			return all, nil
		}
		startAt += pageSize
		if len(all) > MaxItems {
			slog.Warn("pagination stopped at safety limit", "path", path, "items", len(all))
			return all, nil
		}
	}
}

// ChildFolders returns the test-case folders directly under parentID,
// sorted by name.
func (c *Client) ChildFolders(ctx context.Context, project string, parentID int) ([]Folder, error) {
	raw, err := c.paginate(ctx, "/folders", url.Values{"projectKey": {project}}, folderPageSize)
	if err != nil {
		return nil, err
	}
	var folders []Folder
	for _, r := range raw {
		var f Folder
		if err := json.Unmarshal(r, &f); err != nil {
			return nil, fmt.Errorf("failed to decode folder: %w", err)
		}
		if f.ParentID != nil && *f.ParentID == parentID && f.FolderType == "TEST_CASE" {
			folders = append(folders, f)
		}
	}
	slices.SortStableFunc(folders, func(a, b Folder) int {
		return tree.Compare(a.Name, b.Name)
	})
	return folders, nil
}

// TestCases returns the test cases in folderID.
func (c *Client) TestCases(ctx context.Context, project string, folderID int) ([]TestCase, error) {
	params := url.Values{"projectKey": {project}, "folderId": {fmt.Sprint(folderID)}}
	raw, err := c.paginate(ctx, "/testcases", params, testCasePageSize)
	if err != nil {
		return nil, err
	}
	tests := make([]TestCase, 0, len(raw))
	for _, r := range raw {
		var tc struct {
			Key    string `json:"key"`
			Name   string `json:"name"`
			Status *struct {
				Name string `json:"name"`
			} `json:"status"`
		}
		if err := json.Unmarshal(r, &tc); err != nil {
			return nil, fmt.Errorf("failed to decode test case: %w", err)
		}
		status := "Unknown"
		if tc.Status != nil && tc.Status.Name != "" {
			status = tc.Status.Name
		}
		tests = append(tests, TestCase{Key: tc.Key, Name: tc.Name, Status: status})
	}
	return tests, nil
}
