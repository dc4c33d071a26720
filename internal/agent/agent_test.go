package agent

import (
	"errors"
	"testing"

	"github.com/devices-agents/agentboard/internal/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullTokens() credentials.Tokens {
	return credentials.Tokens{
		GitHubToken:    "gh",
		BuildkiteToken: "bk",
		CursorKey:      "cur",
	}
}

func TestRegistry(t *testing.T) {
	agents := Registry()
	require.Len(t, agents, 2)
	assert.Equal(t, "unity", agents[0].ID)
	assert.Equal(t, "sentry", agents[1].ID)

	a, ok := Lookup("sentry")
	require.True(t, ok)
	assert.Equal(t, ModeTests, a.Mode)
	assert.Equal(t, "test", a.Unit())

	_, ok = Lookup("translations")
	assert.False(t, ok)
}

func TestValidate_Order(t *testing.T) {
	tests := []struct {
		name    string
		tokens  credentials.Tokens
		targets []string
		message string
	}{
		{"buildkite first", credentials.Tokens{}, nil, "BuildKite token required"},
		{"cursor second", credentials.Tokens{BuildkiteToken: "bk"}, nil, "Cursor API Key required"},
		{"selection last", credentials.Tokens{BuildkiteToken: "bk", CursorKey: "c"}, nil, "Select at least one file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Unity, TriggerInput{Branch: "main", Tokens: tt.tokens, Targets: tt.targets})
			require.Error(t, err)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestValidate_ErrorTypes(t *testing.T) {
	err := Validate(Unity, TriggerInput{Branch: "main", Tokens: credentials.Tokens{}})
	var missing *MissingCredentialError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, BuildkiteToken, missing.Spec.Key)

	err = Validate(Sentry, TriggerInput{Branch: "main", Tokens: fullTokens()})
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, "Select at least one test", err.Error())
}

func TestValidate_GitHubTokenOptional(t *testing.T) {
	tokens := credentials.Tokens{BuildkiteToken: "bk", CursorKey: "c"}
	assert.NoError(t, Validate(Unity, TriggerInput{Branch: "main", Tokens: tokens, Targets: []string{"lib/a.dart"}}))
}

func TestBuildTrigger_Unity(t *testing.T) {
	req, err := BuildTrigger(Unity, TriggerInput{
		Branch:  "feature/x",
		Targets: []string{"lib/a.dart", "lib/b/c.dart"},
		Tokens:  fullTokens(),
	})

	require.NoError(t, err)
	assert.Equal(t, "HEAD", req.Commit)
	assert.Equal(t, "feature/x", req.Branch)
	assert.Equal(t, "Unity Agent UI - 2 files", req.Message)
	assert.Equal(t, map[string]string{
		"TARGET_FILES":       "lib/a.dart,lib/b/c.dart",
		"BASE_BRANCH":        "feature/x",
		"COVERAGE_THRESHOLD": "90",
		"CURSOR_API_KEY":     "cur",
		"GITHUB_TOKEN":       "gh",
		"AGENT_MODE":         "files",
	}, req.Env)
}

func TestBuildTrigger_Sentry(t *testing.T) {
	req, err := BuildTrigger(Sentry, TriggerInput{
		Branch:            "main",
		Targets:           []string{"HS-T1"},
		Tokens:            fullTokens(),
		CoverageThreshold: 75,
	})

	require.NoError(t, err)
	assert.Equal(t, "Sentry Agent UI - 1 tests", req.Message)
	assert.Equal(t, "HS-T1", req.Env["TARGET_TESTS"])
	assert.Equal(t, "tests", req.Env["AGENT_MODE"])
	assert.NotContains(t, req.Env, "COVERAGE_THRESHOLD")
	assert.NotContains(t, req.Env, "TARGET_FILES")
}

func TestBuildTrigger_CustomThreshold(t *testing.T) {
	req, err := BuildTrigger(Unity, TriggerInput{
		Branch: "main", Targets: []string{"lib/a.dart"}, Tokens: fullTokens(), CoverageThreshold: 80,
	})
	require.NoError(t, err)
	assert.Equal(t, "80", req.Env["COVERAGE_THRESHOLD"])
}
