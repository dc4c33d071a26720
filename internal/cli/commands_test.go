package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/devices-agents/agentboard/internal/github"
	"github.com/devices-agents/agentboard/internal/history"
	"github.com/devices-agents/agentboard/internal/zephyr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var credentialVars = []string{
	"GITHUB_TOKEN", "GH_TOKEN",
	"BUILDKITE_API_TOKEN", "BUILDKITE_TOKEN",
	"CURSOR_API_KEY", "ZEPHYR_TOKEN",
}

type testEnv struct {
	dir     string
	config  string
	envFile string

	mu    sync.Mutex
	build map[string]any
}

// newTestEnv starts fake upstreams and writes a config pointing at them.
// envLines become the --env-file contents.
func newTestEnv(t *testing.T, envLines ...string) *testEnv {
	t.Helper()
	for _, k := range credentialVars {
		t.Setenv(k, "")
	}
	t.Setenv(logLevelEnv, "")

	e := &testEnv{dir: t.TempDir()}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/highspot/app_voyager/branches", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]github.Branch{{Name: "feature"}, {Name: "main"}})
	})
	mux.HandleFunc("/repos/highspot/app_voyager/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"tree": []github.TreeEntry{
			{Path: "lib/a.dart", Type: "blob"},
			{Path: "lib/b/c.dart", Type: "blob"},
			{Path: "lib/b/c.g.dart", Type: "blob"},
		}})
	})
	mux.HandleFunc("/v2/organizations/highspot/pipelines/", func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		json.NewDecoder(r.Body).Decode(&e.build)
		e.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number":12,"web_url":"https://buildkite.com/highspot/b/12","state":"scheduled"}`)
	})
	mux.HandleFunc("/folders", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"isLast":true,"values":[{"id":1,"parentId":8194838,"name":"Login","folderType":"TEST_CASE"}]}`)
	})
	mux.HandleFunc("/testcases", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"isLast":true,"values":[{"key":"HS-T1","name":"Sign in","status":{"name":"Approved"}}]}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	e.config = filepath.Join(e.dir, "config.yaml")
	cfg := fmt.Sprintf(`data_dir: %s
github:
  base_url: %s
buildkite:
  base_url: %s
zephyr:
  base_url: %s
`, e.dir, server.URL, server.URL, server.URL)
	require.NoError(t, os.WriteFile(e.config, []byte(cfg), 0644))

	e.envFile = filepath.Join(e.dir, "tokens.env")
	require.NoError(t, os.WriteFile(e.envFile, []byte(strings.Join(envLines, "\n")), 0600))
	return e
}

func (e *testEnv) run(args ...string) (string, error) {
	out := &bytes.Buffer{}
	cmd := NewRootCommand("test")
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", e.config, "--env-file", e.envFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) lastBuild() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.build
}

var allCredentials = []string{
	"GH_TOKEN=gh",
	"BUILDKITE_API_TOKEN=bk",
	"CURSOR_API_KEY=cur",
	"ZEPHYR_TOKEN=zt",
}

func TestBranchesCommand(t *testing.T) {
	t.Run("lists branches with the current one marked", func(t *testing.T) {
		e := newTestEnv(t, allCredentials...)

		out, err := e.run("branches")

		require.NoError(t, err)
		assert.Equal(t, "* main  (default)\n  feature\n", out)
	})

	t.Run("json", func(t *testing.T) {
		e := newTestEnv(t, allCredentials...)

		out, err := e.run("branches", "--json")

		require.NoError(t, err)
		var branches []string
		require.NoError(t, json.Unmarshal([]byte(out), &branches))
		assert.Equal(t, []string{"main", "feature"}, branches)
	})

	t.Run("needs a GitHub token", func(t *testing.T) {
		e := newTestEnv(t)

		_, err := e.run("branches")

		assert.ErrorIs(t, err, github.ErrMissingToken)
	})
}

func TestFilesCommand(t *testing.T) {
	e := newTestEnv(t, allCredentials...)

	out, err := e.run("files", "--branch", "main")

	require.NoError(t, err)
	assert.Equal(t, "lib/a.dart\nlib/b/c.dart\n", out)
}

func TestTriggerCommand(t *testing.T) {
	t.Run("sends targets from flags and file", func(t *testing.T) {
		e := newTestEnv(t, allCredentials...)
		targetsFile := filepath.Join(e.dir, "targets.txt")
		require.NoError(t, os.WriteFile(targetsFile, []byte("# extra\nlib/b/c.dart\n\n"), 0644))

		out, err := e.run("trigger", "--branch", "main", "--target", "lib/a.dart", "--targets-file", targetsFile)

		require.NoError(t, err)
		assert.Equal(t, "Pipeline triggered! Build #12\nhttps://buildkite.com/highspot/b/12\n", out)

		build := e.lastBuild()
		require.NotNil(t, build)
		assert.Equal(t, "Unity Agent UI - 2 files", build["message"])
		env := build["env"].(map[string]any)
		assert.Equal(t, "lib/a.dart,lib/b/c.dart", env["TARGET_FILES"])
		assert.Equal(t, "main", env["BASE_BRANCH"])
	})

	t.Run("json output", func(t *testing.T) {
		e := newTestEnv(t, allCredentials...)

		out, err := e.run("trigger", "--agent", "sentry", "--target", "HS-T1", "--json")

		require.NoError(t, err)
		var build map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &build))
		assert.Equal(t, float64(12), build["number"])
		env := e.lastBuild()["env"].(map[string]any)
		assert.Equal(t, "HS-T1", env["TARGET_TESTS"])
	})

	t.Run("validation error", func(t *testing.T) {
		e := newTestEnv(t, "BUILDKITE_TOKEN=bk")

		_, err := e.run("trigger", "--target", "lib/a.dart")

		require.Error(t, err)
		assert.Equal(t, "Cursor API Key required", err.Error())
		assert.Nil(t, e.lastBuild())
	})

	t.Run("unknown agent", func(t *testing.T) {
		e := newTestEnv(t, allCredentials...)

		_, err := e.run("trigger", "--agent", "nope", "--target", "x")

		assert.Error(t, err)
	})
}

func TestHistoryCommand(t *testing.T) {
	e := newTestEnv(t, allCredentials...)

	out, err := e.run("history")
	require.NoError(t, err)
	assert.Equal(t, "No triggers recorded\n", out)

	_, err = e.run("trigger", "--target", "lib/a.dart")
	require.NoError(t, err)

	out, err = e.run("history", "--json")
	require.NoError(t, err)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "unity", entries[0].AgentID)
	assert.Equal(t, 12, entries[0].BuildNumber)

	out, err = e.run("history")
	require.NoError(t, err)
	assert.Contains(t, out, "lib/a.dart")
	assert.Contains(t, out, "#12")

	assert.FileExists(t, filepath.Join(e.dir, dbFileName))
	assert.NoFileExists(t, filepath.Join(e.dir, "history.db"))
	assert.NoFileExists(t, filepath.Join(e.dir, "prefs.db"))
}

func TestStoresShareOneDatabase(t *testing.T) {
	e := newTestEnv(t, allCredentials...)

	_, err := e.run("trigger", "--branch", "main", "--target", "lib/a.dart")
	require.NoError(t, err)

	db, err := sql.Open("sqlite", filepath.Join(e.dir, dbFileName))
	require.NoError(t, err)
	defer db.Close()
	var triggers int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM triggers").Scan(&triggers))
	assert.Equal(t, 1, triggers)
	var prefsTables int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'preferences'").Scan(&prefsTables))
	assert.Equal(t, 1, prefsTables)
}

func TestCatalogCommands(t *testing.T) {
	t.Run("fetch then show", func(t *testing.T) {
		e := newTestEnv(t, allCredentials...)

		out, err := e.run("catalog", "fetch")
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote 1 tests in 1 folders")
		assert.FileExists(t, filepath.Join(e.dir, "zephyr-tests.json"))

		out, err = e.run("catalog", "show")
		require.NoError(t, err)
		assert.Contains(t, out, "Login (1)")
		assert.Contains(t, out, "HS-T1")
		assert.Contains(t, out, "[Approved]")
	})

	t.Run("fetch to a custom path", func(t *testing.T) {
		e := newTestEnv(t, allCredentials...)
		path := filepath.Join(e.dir, "out", "catalog.json")

		_, err := e.run("catalog", "fetch", "--out", path)

		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("fetch needs a Zephyr token", func(t *testing.T) {
		e := newTestEnv(t, "GH_TOKEN=gh")

		_, err := e.run("catalog", "fetch")

		assert.ErrorIs(t, err, zephyr.ErrMissingToken)
	})

	t.Run("show without a catalog", func(t *testing.T) {
		e := newTestEnv(t)

		_, err := e.run("catalog", "show")

		assert.Error(t, err)
	})
}

func TestMissingConfigFile(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := NewRootCommand("test")
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "branches"})

	err := cmd.Execute()

	assert.Error(t, err)
}
