// Package app wires configuration, credentials, upstream clients and stores
// into the operations the TUI and CLI share.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/devices-agents/agentboard/internal/agent"
	"github.com/devices-agents/agentboard/internal/buildkite"
	"github.com/devices-agents/agentboard/internal/catalog"
	"github.com/devices-agents/agentboard/internal/config"
	"github.com/devices-agents/agentboard/internal/credentials"
	"github.com/devices-agents/agentboard/internal/github"
	"github.com/devices-agents/agentboard/internal/history"
	"github.com/devices-agents/agentboard/internal/prefs"
	httpclient "github.com/devices-agents/agentboard/internal/protocol/http"
	"github.com/devices-agents/agentboard/internal/zephyr"
)

// ZephyrToken is read for catalog refreshes.
const ZephyrToken = "ZEPHYR_TOKEN"

// App is the main application container with dependency injection.
type App struct {
	config  config.Config
	http    *httpclient.Client
	history history.Store
	prefs   prefs.Store
	dark    func() bool
	closers []io.Closer

	mu   sync.RWMutex
	vars map[string]string
}

// Option is a function that configures the App.
type Option func(*App)

// New creates a new App with the given options.
func New(opts ...Option) *App {
	app := &App{
		config: config.Default(),
		vars:   make(map[string]string),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.http == nil {
		app.http = httpclient.NewClient(httpclient.WithTimeout(app.config.Timeout))
	}
	if app.prefs == nil {
		app.prefs = prefs.NewMemoryStore()
	}

	return app
}

// WithConfig sets the application configuration.
func WithConfig(cfg config.Config) Option {
	return func(a *App) {
		a.config = cfg
	}
}

// WithHTTPClient sets the client used for every upstream API.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(a *App) {
		a.http = c
	}
}

// WithHistory records triggers in store.
func WithHistory(store history.Store) Option {
	return func(a *App) {
		a.history = store
	}
}

// WithPrefs persists preferences in store.
func WithPrefs(store prefs.Store) Option {
	return func(a *App) {
		a.prefs = store
	}
}

// WithCredentials seeds the credential variables.
func WithCredentials(vars map[string]string) Option {
	return func(a *App) {
		a.vars = credentials.Merge(vars)
	}
}

// WithDarkBackground sets how the default theme is detected.
func WithDarkBackground(dark func() bool) Option {
	return func(a *App) {
		a.dark = dark
	}
}

// WithCloser registers c to be closed after the stores, such as the
// database connection they share.
func WithCloser(c io.Closer) Option {
	return func(a *App) {
		a.closers = append(a.closers, c)
	}
}

// Config returns the application configuration.
func (a *App) Config() config.Config {
	return a.config
}

// Agents returns the configured agents in tab order.
func (a *App) Agents() []agent.Agent {
	return a.config.Agents()
}

// Agent looks up a configured agent.
func (a *App) Agent(id string) (agent.Agent, bool) {
	for _, ag := range a.Agents() {
		if ag.ID == id {
			return ag, true
		}
	}
	return agent.Agent{}, false
}

// SetCredentials replaces the credential variables, usually from pasted
// KEY=value text.
func (a *App) SetCredentials(vars map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vars = credentials.Merge(vars)
}

// Credentials returns a copy of the raw credential variables.
func (a *App) Credentials() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return credentials.Merge(a.vars)
}

// Tokens resolves the agent token specs against the current variables.
func (a *App) Tokens() credentials.Tokens {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return credentials.Resolve(agent.TokenSpecs, a.vars)
}

func (a *App) github() *github.Client {
	gh := a.config.GitHub
	return github.NewClient(a.http, github.Config{
		BaseURL:  gh.BaseURL,
		Owner:    gh.Owner,
		Repo:     gh.Repo,
		MaxPages: gh.MaxPages,
	}, a.Tokens().Get(agent.GitHubToken))
}

// FetchBranches lists branches, default branches first.
func (a *App) FetchBranches(ctx context.Context) ([]string, error) {
	branches, err := a.github().ListBranches(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded branches", "count", len(branches))
	return branches, nil
}

// FetchFiles lists the filtered source files on branch.
func (a *App) FetchFiles(ctx context.Context, branch string) ([]string, error) {
	entries, err := a.github().ListTree(ctx, branch)
	if err != nil {
		return nil, err
	}
	files := github.Files(entries, a.config.GitHub.Files)
	slog.Info("loaded files", "branch", branch, "count", len(files))
	return files, nil
}

// LoadCatalog reads the test catalog from the configured path.
func (a *App) LoadCatalog() (*catalog.Catalog, error) {
	return catalog.Load(a.config.Catalog)
}

// RefreshCatalog fetches a new catalog from Zephyr and writes it to path,
// or to the configured path when path is empty.
func (a *App) RefreshCatalog(ctx context.Context, path string) (*catalog.Catalog, error) {
	token := a.Credentials()[ZephyrToken]
	if token == "" {
		return nil, zephyr.ErrMissingToken
	}
	if path == "" {
		path = a.config.Catalog
	}

	z := a.config.Zephyr
	c, err := zephyr.FetchCatalog(ctx, zephyr.NewClient(a.http, z.BaseURL, token), zephyr.SnapshotOptions{
		Project:        z.Project,
		RootFolderID:   z.RootFolderID,
		RootFolderName: z.RootFolderName,
		Concurrency:    z.Concurrency,
	})
	if err != nil {
		return nil, err
	}
	if err := c.Save(path); err != nil {
		return nil, err
	}
	slog.Info("catalog written", "path", path, "folders", len(c.Folders), "tests", c.TotalTests())
	return c, nil
}

// Trigger validates the selection and starts the agent's pipeline. Attempts
// that reach BuildKite are recorded in history whether or not they succeed.
func (a *App) Trigger(ctx context.Context, agentID, branch string, targets []string) (*buildkite.Build, error) {
	ag, ok := a.Agent(agentID)
	if !ok {
		return nil, fmt.Errorf("unknown agent: %s", agentID)
	}

	tokens := a.Tokens()
	req, err := agent.BuildTrigger(ag, agent.TriggerInput{
		Branch:            branch,
		Targets:           targets,
		Tokens:            tokens,
		CoverageThreshold: a.config.Buildkite.CoverageThreshold,
	})
	if err != nil {
		return nil, err
	}

	bk := a.config.Buildkite
	client := buildkite.NewClient(a.http, bk.BaseURL, tokens.Get(agent.BuildkiteToken))
	build, err := client.CreateBuild(ctx, bk.Organization, ag.Pipeline, req)

	entry := history.Entry{
		AgentID:  ag.ID,
		Pipeline: ag.Pipeline,
		Branch:   branch,
		Message:  req.Message,
		Targets:  targets,
	}
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.BuildNumber = build.Number
		entry.WebURL = build.WebURL
	}
	a.record(ctx, entry)

	return build, err
}

func (a *App) record(ctx context.Context, entry history.Entry) {
	if a.history == nil {
		return
	}
	if _, err := a.history.Add(ctx, entry); err != nil {
		slog.Warn("failed to record trigger", "error", err)
	}
}

// History lists recorded triggers.
func (a *App) History(ctx context.Context, opts history.QueryOptions) ([]history.Entry, error) {
	if a.history == nil {
		return nil, nil
	}
	return a.history.List(ctx, opts)
}

// Branch returns the persisted branch.
func (a *App) Branch(ctx context.Context) string {
	return prefs.Branch(a.prefs).Load(ctx)
}

// SelectBranch persists branch as the current selection.
func (a *App) SelectBranch(ctx context.Context, branch string) error {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return fmt.Errorf("branch cannot be empty")
	}
	return prefs.Branch(a.prefs).Save(ctx, branch)
}

// Theme returns the persisted theme, or the terminal default.
func (a *App) Theme(ctx context.Context) string {
	return prefs.Theme(a.prefs, a.dark).Load(ctx)
}

// SetTheme persists theme.
func (a *App) SetTheme(ctx context.Context, theme string) error {
	if theme != prefs.ThemeDark && theme != prefs.ThemeLight {
		return fmt.Errorf("unknown theme: %s", theme)
	}
	return prefs.Theme(a.prefs, a.dark).Save(ctx, theme)
}

// Close releases the stores.
func (a *App) Close() error {
	var firstErr error
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			firstErr = err
		}
	}
	if a.prefs != nil {
		if err := a.prefs.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
