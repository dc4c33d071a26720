package cli

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/devices-agents/agentboard/internal/app"
	"github.com/devices-agents/agentboard/internal/config"
	"github.com/devices-agents/agentboard/internal/credentials"
	historysqlite "github.com/devices-agents/agentboard/internal/history/sqlite"
	prefssqlite "github.com/devices-agents/agentboard/internal/prefs/sqlite"
	"github.com/devices-agents/agentboard/internal/tui/views"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

// File names under the data directory.
const (
	dbFileName  = "agentboard.db"
	logFileName = "agentboard.log"
)

// RootOptions holds the global flags.
type RootOptions struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "agentboard",
		Short: "Agentboard - trigger test-generation agents",
		Long: "Agentboard picks a branch and a set of source files or test cases and " +
			"starts the matching BuildKite pipeline. Run without a command for the TUI.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging(opts.LogLevel, cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (default ~/.config/agentboard/config.yaml)")
	cmd.PersistentFlags().StringVarP(&opts.EnvFile, "env-file", "e", "", "File with KEY=value credential lines")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error (env "+logLevelEnv+")")

	cmd.AddCommand(
		NewBranchesCommand(opts),
		NewFilesCommand(opts),
		NewTriggerCommand(opts),
		NewCatalogCommand(opts),
		NewHistoryCommand(opts),
	)

	return cmd
}

// loadConfig reads the config named by --config, or the default file when
// it exists.
func loadConfig(opts *RootOptions) (config.Config, error) {
	path := opts.ConfigPath
	required := path != ""
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return config.Config{}, err
		}
		path = p
	}
	return config.Load(path, required)
}

// loadCredentials merges the process environment with --env-file; the file
// wins.
func loadCredentials(opts *RootOptions) (map[string]string, error) {
	vars := credentials.FromEnviron(os.Environ())
	if opts.EnvFile == "" {
		return vars, nil
	}
	fileVars, err := credentials.LoadFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	return credentials.Merge(vars, fileVars), nil
}

// newApp wires configuration, credentials and the SQLite stores, which
// share one database file under the data directory.
func newApp(opts *RootOptions) (*app.App, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	vars, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(cfg.DataDir, dbFileName)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	historyStore, err := historysqlite.NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	prefsStore, err := prefssqlite.NewWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return app.New(
		app.WithConfig(cfg),
		app.WithCredentials(vars),
		app.WithHistory(historyStore),
		app.WithPrefs(prefsStore),
		app.WithCloser(db),
		app.WithDarkBackground(lipgloss.HasDarkBackground),
	), nil
}

// tuiModel wraps the MainView for bubbletea
type tuiModel struct {
	view *views.MainView
}

func (m tuiModel) Init() tea.Cmd {
	return m.view.Init()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.view.Update(msg)
	m.view = updated.(*views.MainView)
	return m, cmd
}

func (m tuiModel) View() string {
	return m.view.View()
}

// runTUI starts the TUI application. Logs go to a file under the data
// directory so they do not draw over the screen.
func runTUI(opts *RootOptions) error {
	application, err := newApp(opts)
	if err != nil {
		return err
	}
	defer application.Close()

	logFile, err := os.OpenFile(filepath.Join(application.Config().DataDir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	if err := initLogging(opts.LogLevel, logFile); err != nil {
		return err
	}

	model := tuiModel{
		view: views.NewMainView(application),
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}
	return nil
}

// withApp runs fn with a wired App and closes it afterwards.
func withApp(opts *RootOptions, fn func(*app.App) error) error {
	application, err := newApp(opts)
	if err != nil {
		return err
	}
	defer application.Close()
	return fn(application)
}
