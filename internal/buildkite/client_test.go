package buildkite

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	httpclient "github.com/devices-agents/agentboard/internal/protocol/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateBuild(t *testing.T) {
	t.Run("posts build and decodes response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/v2/organizations/highspot/pipelines/voyager-unity-agent/builds", r.URL.Path)
			assert.Equal(t, "Bearer bk-token", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var body BuildRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "HEAD", body.Commit)
			assert.Equal(t, "main", body.Branch)
			assert.Equal(t, "lib/a.dart", body.Env["TARGET_FILES"])

			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"number":42,"web_url":"https://buildkite.com/highspot/voyager-unity-agent/builds/42","state":"scheduled"}`)
		}))
		defer server.Close()

		client := NewClient(httpclient.NewClient(), server.URL, "bk-token")
		build, err := client.CreateBuild(context.Background(), "highspot", "voyager-unity-agent", BuildRequest{
			Commit:  "HEAD",
			Branch:  "main",
			Message: "Unity Agent UI - 1 files",
			Env:     map[string]string{"TARGET_FILES": "lib/a.dart"},
		})

		require.NoError(t, err)
		assert.Equal(t, 42, build.Number)
		assert.Equal(t, "https://buildkite.com/highspot/voyager-unity-agent/builds/42", build.WebURL)
		assert.Equal(t, "scheduled", build.State)
	})

	t.Run("uses body message on error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"message":"Branch not found"}`)
		}))
		defer server.Close()

		client := NewClient(httpclient.NewClient(), server.URL, "bk-token")
		_, err := client.CreateBuild(context.Background(), "highspot", "p", BuildRequest{Commit: "HEAD", Branch: "x"})

		require.Error(t, err)
		assert.Equal(t, "Branch not found", err.Error())
	})

	t.Run("falls back to status code", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		client := NewClient(httpclient.NewClient(), server.URL, "bk-token")
		_, err := client.CreateBuild(context.Background(), "highspot", "p", BuildRequest{Commit: "HEAD", Branch: "x"})

		require.Error(t, err)
		assert.Equal(t, "BuildKite API error: 403", err.Error())
	})

	t.Run("missing token", func(t *testing.T) {
		client := NewClient(httpclient.NewClient(), "http://unused", "")
		_, err := client.CreateBuild(context.Background(), "highspot", "p", BuildRequest{})
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("missing pipeline", func(t *testing.T) {
		client := NewClient(httpclient.NewClient(), "http://unused", "bk-token")
		_, err := client.CreateBuild(context.Background(), "highspot", "", BuildRequest{})
		assert.Error(t, err)
	})
}
