// Package config loads agentboard's YAML settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devices-agents/agentboard/internal/agent"
	"github.com/devices-agents/agentboard/internal/catalog"
	"github.com/devices-agents/agentboard/internal/github"
)

// Config is the full settings file.
type Config struct {
	DataDir   string        `yaml:"data_dir,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	GitHub    GitHub        `yaml:"github"`
	Buildkite Buildkite     `yaml:"buildkite"`
	Zephyr    Zephyr        `yaml:"zephyr"`
	// Catalog is the test catalog path; relative paths resolve against DataDir.
	Catalog string `yaml:"catalog,omitempty"`
}

type GitHub struct {
	BaseURL  string            `yaml:"base_url,omitempty"`
	Owner    string            `yaml:"owner"`
	Repo     string            `yaml:"repo"`
	MaxPages int               `yaml:"max_pages,omitempty"`
	Files    github.FileFilter `yaml:"files"`
}

type Buildkite struct {
	BaseURL           string `yaml:"base_url,omitempty"`
	Organization      string `yaml:"organization"`
	CoverageThreshold int    `yaml:"coverage_threshold,omitempty"`
	// Pipelines maps agent id to pipeline slug.
	Pipelines map[string]string `yaml:"pipelines"`
}

type Zephyr struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	Project        string `yaml:"project"`
	RootFolderID   int    `yaml:"root_folder_id"`
	RootFolderName string `yaml:"root_folder_name"`
	Concurrency    int    `yaml:"concurrency,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	pipelines := make(map[string]string)
	for _, a := range agent.Registry() {
		pipelines[a.ID] = a.Pipeline
	}
	return Config{
		Timeout: 30 * time.Second,
		GitHub: GitHub{
			Owner:    "highspot",
			Repo:     "app_voyager",
			MaxPages: github.DefaultMaxPages,
			Files:    github.DefaultFileFilter(),
		},
		Buildkite: Buildkite{
			Organization:      "highspot",
			CoverageThreshold: agent.DefaultCoverageThreshold,
			Pipelines:         pipelines,
		},
		Zephyr: Zephyr{
			Project:        "HS",
			RootFolderID:   8194838,
			RootFolderName: "Devices Crew",
			Concurrency:    4,
		},
		Catalog: catalog.DefaultFileName,
	}
}

// DefaultDir is ~/.config/agentboard.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "agentboard"), nil
}

// DefaultPath is the config file inside DefaultDir.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults
// unless required is set.
func Load(path string, required bool) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			cfg := Default()
			return cfg, cfg.resolve(filepath.Dir(path))
		}
		return Config{}, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.resolve(filepath.Dir(path))
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte, source string) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config %q: %w", source, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid config in %q: %s", source, strings.Join(errs, "; "))
	}
	return cfg, nil
}

// Validate lists every problem with the settings.
func (c Config) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.GitHub.Owner) == "" || strings.TrimSpace(c.GitHub.Repo) == "" {
		errs = append(errs, "github.owner and github.repo are required")
	}
	if c.GitHub.MaxPages < 0 {
		errs = append(errs, "github.max_pages must be >= 0")
	}
	if err := c.GitHub.Files.Validate(); err != nil {
		errs = append(errs, "github.files: "+err.Error())
	}
	if strings.TrimSpace(c.Buildkite.Organization) == "" {
		errs = append(errs, "buildkite.organization is required")
	}
	for _, a := range agent.Registry() {
		if strings.TrimSpace(c.Buildkite.Pipelines[a.ID]) == "" {
			errs = append(errs, fmt.Sprintf("buildkite.pipelines.%s is required", a.ID))
		}
	}
	if c.Buildkite.CoverageThreshold < 0 || c.Buildkite.CoverageThreshold > 100 {
		errs = append(errs, "buildkite.coverage_threshold must be between 0 and 100")
	}
	if strings.TrimSpace(c.Zephyr.Project) == "" {
		errs = append(errs, "zephyr.project is required")
	}
	if c.Timeout < 0 {
		errs = append(errs, "timeout must be >= 0")
	}
	return errs
}

// resolve fills DataDir and makes Catalog absolute. Without an explicit
// data_dir the directory holding the config file is used.
func (c *Config) resolve(configDir string) error {
	dir, err := ExpandHome(c.DataDir)
	if err != nil {
		return err
	}
	if dir == "" {
		dir = configDir
	}
	c.DataDir = dir

	catalogPath, err := ExpandHome(c.Catalog)
	if err != nil {
		return err
	}
	if catalogPath != "" && !filepath.IsAbs(catalogPath) {
		catalogPath = filepath.Join(c.DataDir, catalogPath)
	}
	c.Catalog = catalogPath
	return nil
}

// Agents returns the registry with pipelines from the config applied.
func (c Config) Agents() []agent.Agent {
	agents := agent.Registry()
	for i := range agents {
		if p := c.Buildkite.Pipelines[agents[i].ID]; p != "" {
			agents[i].Pipeline = p
		}
	}
	return agents
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
