package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/devices-agents/agentboard/internal/core"
	httpclient "github.com/devices-agents/agentboard/internal/protocol/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL, token string, maxPages int) *Client {
	return NewClient(httpclient.NewClient(), Config{
		BaseURL:  serverURL,
		Owner:    "highspot",
		Repo:     "app_voyager",
		MaxPages: maxPages,
	}, token)
}

func branchPage(n, offset int) []Branch {
	page := make([]Branch, n)
	for i := range page {
		page[i] = Branch{Name: "feature-" + strconv.Itoa(offset+i)}
	}
	return page
}

func TestClient_ListBranches(t *testing.T) {
	t.Run("pages until a short page", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			assert.Equal(t, "/repos/highspot/app_voyager/branches", r.URL.Path)
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			assert.Equal(t, "token secret", r.Header.Get("Authorization"))

			page, _ := strconv.Atoi(r.URL.Query().Get("page"))
			switch page {
			case 1:
				batch := branchPage(99, 0)
				batch = append(batch, Branch{Name: "develop"})
				json.NewEncoder(w).Encode(batch)
			case 2:
				json.NewEncoder(w).Encode([]Branch{{Name: "main"}, {Name: "alpha"}})
			default:
				t.Errorf("unexpected page %d", page)
			}
		}))
		defer server.Close()

		names, err := newTestClient(server.URL, "secret", 5).ListBranches(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
		assert.Len(t, names, 102)
		assert.Equal(t, []string{"main", "develop", "alpha"}, names[:3])
	})

	t.Run("stops at max pages", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&calls, 1)
			json.NewEncoder(w).Encode(branchPage(PageSize, int(n)*PageSize))
		}))
		defer server.Close()

		names, err := newTestClient(server.URL, "secret", 2).ListBranches(context.Background())

		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
		assert.Len(t, names, 200)
	})

	t.Run("missing token fails before any request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, "", 5).ListBranches(context.Background())

		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("surfaces status code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"Bad credentials"}`)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL, "bad", 5).ListBranches(context.Background())

		var apiErr *core.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 401, apiErr.StatusCode)
		assert.Equal(t, "GitHub API error: 401", err.Error())
	})
}

func TestClient_ListTree(t *testing.T) {
	t.Run("lists recursive tree", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/repos/highspot/app_voyager/git/trees/feature/login", r.URL.Path)
			assert.Equal(t, "1", r.URL.Query().Get("recursive"))
			json.NewEncoder(w).Encode(map[string]any{
				"sha": "abc",
				"tree": []TreeEntry{
					{Path: "lib", Type: "tree"},
					{Path: "lib/a.dart", Type: "blob"},
				},
			})
		}))
		defer server.Close()

		entries, err := newTestClient(server.URL, "secret", 5).ListTree(context.Background(), "feature/login")

		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "lib/a.dart", entries[1].Path)
	})

	t.Run("empty ref", func(t *testing.T) {
		_, err := newTestClient("http://unused", "secret", 5).ListTree(context.Background(), "")
		assert.Error(t, err)
	})
}

func TestSortBranches(t *testing.T) {
	names := []string{"zeta", "develop", "Beta", "main", "alpha", "master"}

	SortBranches(names)

	assert.Equal(t, []string{"main", "master", "develop", "alpha", "Beta", "zeta"}, names)
}

func TestDefaultBranches(t *testing.T) {
	assert.Equal(t, []string{"main", "develop"}, DefaultBranches([]string{"x", "develop", "main"}))
	assert.Nil(t, DefaultBranches([]string{"x"}))
}
