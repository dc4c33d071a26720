// Package agent describes the test-generation agents and turns a selection
// into a pipeline build request.
package agent

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/devices-agents/agentboard/internal/buildkite"
	"github.com/devices-agents/agentboard/internal/credentials"
)

// Mode is the kind of selection an agent works on.
type Mode string

const (
	// ModeFiles selects repository source files.
	ModeFiles Mode = "files"
	// ModeTests selects catalog test cases.
	ModeTests Mode = "tests"
)

// Token keys.
const (
	GitHubToken    = "GITHUB_TOKEN"
	BuildkiteToken = "BUILDKITE_API_TOKEN"
	CursorKey      = "CURSOR_API_KEY"
)

// DefaultCoverageThreshold is sent to unit-test builds.
const DefaultCoverageThreshold = 90

// TokenSpecs lists every credential the dashboard understands.
var TokenSpecs = []credentials.TokenSpec{
	{Key: GitHubToken, Label: "GitHub token", Aliases: []string{"GH_TOKEN"}},
	{Key: BuildkiteToken, Label: "BuildKite token", Aliases: []string{"BUILDKITE_TOKEN"}},
	{Key: CursorKey, Label: "Cursor API Key"},
}

// Spec returns the token spec for key.
func Spec(key string) (credentials.TokenSpec, bool) {
	for _, s := range TokenSpecs {
		if s.Key == key {
			return s, true
		}
	}
	return credentials.TokenSpec{}, false
}

// Agent is one pipeline-backed generator.
type Agent struct {
	ID          string
	Name        string
	Title       string
	Description string
	Mode        Mode
	Pipeline    string
}

// Unit names one selected item in messages.
func (a Agent) Unit() string {
	if a.Mode == ModeTests {
		return "test"
	}
	return "file"
}

var (
	Unity = Agent{
		ID:          "unity",
		Name:        "Unity Agent",
		Title:       "Unit Tests",
		Description: "Generate unit tests for Dart files",
		Mode:        ModeFiles,
		Pipeline:    "voyager-unity-agent",
	}
	Sentry = Agent{
		ID:          "sentry",
		Name:        "Sentry Agent",
		Title:       "E2E Tests",
		Description: "Generate E2E Patrol tests from Zephyr specs",
		Mode:        ModeTests,
		Pipeline:    "voyager-sentry-agent",
	}
)

// Registry returns the known agents in tab order.
func Registry() []Agent {
	return []Agent{Unity, Sentry}
}

// Lookup finds an agent by id.
func Lookup(id string) (Agent, bool) {
	for _, a := range Registry() {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

// ErrEmptySelection matches any SelectionError.
var ErrEmptySelection = errors.New("nothing selected")

// MissingCredentialError reports a required token that was not provided.
type MissingCredentialError struct {
	Spec credentials.TokenSpec
}

func (e *MissingCredentialError) Error() string {
	return e.Spec.Label + " required"
}

// SelectionError reports a trigger with nothing selected.
type SelectionError struct {
	Unit string
}

func (e *SelectionError) Error() string {
	return "Select at least one " + e.Unit
}

func (e *SelectionError) Is(target error) bool {
	return target == ErrEmptySelection
}

// TriggerInput is everything a trigger needs besides the agent itself.
type TriggerInput struct {
	Branch            string
	Targets           []string
	Tokens            credentials.Tokens
	CoverageThreshold int
}

// Validate checks credentials and selection in the order the user is told
// about them: BuildKite token, Cursor key, then the selection.
func Validate(a Agent, in TriggerInput) error {
	for _, key := range []string{BuildkiteToken, CursorKey} {
		if !in.Tokens.Has(key) {
			spec, _ := Spec(key)
			return &MissingCredentialError{Spec: spec}
		}
	}
	if len(in.Targets) == 0 {
		return &SelectionError{Unit: a.Unit()}
	}
	if strings.TrimSpace(in.Branch) == "" {
		return errors.New("branch is required")
	}
	return nil
}

// BuildTrigger validates the input and assembles the build request.
func BuildTrigger(a Agent, in TriggerInput) (buildkite.BuildRequest, error) {
	if err := Validate(a, in); err != nil {
		return buildkite.BuildRequest{}, err
	}

	targets := strings.Join(in.Targets, ",")
	env := map[string]string{
		"BASE_BRANCH":    in.Branch,
		"CURSOR_API_KEY": in.Tokens.Get(CursorKey),
		"GITHUB_TOKEN":   in.Tokens.Get(GitHubToken),
		"AGENT_MODE":     string(a.Mode),
	}

	var message string
	switch a.Mode {
	case ModeTests:
		env["TARGET_TESTS"] = targets
		message = fmt.Sprintf("Sentry Agent UI - %d tests", len(in.Targets))
	default:
		threshold := in.CoverageThreshold
		if threshold <= 0 {
			threshold = DefaultCoverageThreshold
		}
		env["TARGET_FILES"] = targets
		env["COVERAGE_THRESHOLD"] = strconv.Itoa(threshold)
		message = fmt.Sprintf("Unity Agent UI - %d files", len(in.Targets))
	}

	return buildkite.BuildRequest{
		Commit:  "HEAD",
		Branch:  in.Branch,
		Message: message,
		Env:     env,
	}, nil
}
