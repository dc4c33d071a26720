package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/devices-agents/agentboard/internal/agent"
	"github.com/devices-agents/agentboard/internal/app"
	"github.com/spf13/cobra"
)

// TriggerOptions holds options for the trigger command.
type TriggerOptions struct {
	Agent       string
	Branch      string
	Targets     []string
	TargetsFile string
	JSON        bool
}

// NewTriggerCommand creates the trigger command.
func NewTriggerCommand(root *RootOptions) *cobra.Command {
	opts := &TriggerOptions{}

	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Start an agent pipeline",
		Long: "Start the BuildKite pipeline for an agent with the given files (unity) or " +
			"test keys (sentry). Needs BUILDKITE_API_TOKEN and CURSOR_API_KEY.",
		Example: "  agentboard trigger --agent unity --branch main --target lib/a.dart --target lib/b.dart\n" +
			"  agentboard trigger --agent sentry --targets-file tests.txt --json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(root, func(a *app.App) error {
				return runTrigger(cmd, a, opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Agent, "agent", "a", agent.Unity.ID, "Agent to run (unity, sentry)")
	cmd.Flags().StringVarP(&opts.Branch, "branch", "b", "", "Branch to build (default: last selected)")
	cmd.Flags().StringArrayVarP(&opts.Targets, "target", "t", nil, "File path or test key (repeatable)")
	cmd.Flags().StringVar(&opts.TargetsFile, "targets-file", "", "File with one target per line")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output build as JSON")

	return cmd
}

func runTrigger(cmd *cobra.Command, a *app.App, opts *TriggerOptions) error {
	ctx := context.Background()

	targets := append([]string(nil), opts.Targets...)
	if opts.TargetsFile != "" {
		fromFile, err := readTargets(opts.TargetsFile)
		if err != nil {
			return err
		}
		targets = append(targets, fromFile...)
	}

	branch := opts.Branch
	if branch == "" {
		branch = a.Branch(ctx)
	}

	build, err := a.Trigger(ctx, opts.Agent, branch, targets)
	if err != nil {
		return err
	}

	if opts.JSON {
		return writeJSON(cmd, build)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pipeline triggered! Build #%d\n", build.Number)
	if build.WebURL != "" {
		fmt.Fprintln(out, build.WebURL)
	}
	return nil
}

// readTargets reads one target per line, skipping blanks and # comments.
func readTargets(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open targets file: %w", err)
	}
	defer f.Close()

	var targets []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}
	return targets, nil
}
