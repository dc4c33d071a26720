package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/devices-agents/agentboard/internal/app"
	"github.com/devices-agents/agentboard/internal/history"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Agent      string
	Branch     string
	FailedOnly bool
	Limit      int
	JSON       bool
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(root *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past pipeline triggers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(root, func(a *app.App) error {
				entries, err := a.History(context.Background(), history.QueryOptions{
					AgentID:    opts.Agent,
					Branch:     opts.Branch,
					FailedOnly: opts.FailedOnly,
					Limit:      opts.Limit,
				})
				if err != nil {
					return err
				}
				if opts.JSON {
					if entries == nil {
						entries = []history.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No triggers recorded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), historyTable(entries))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Agent, "agent", "a", "", "Only this agent")
	cmd.Flags().StringVarP(&opts.Branch, "branch", "b", "", "Only this branch")
	cmd.Flags().BoolVar(&opts.FailedOnly, "failed", false, "Only failed triggers")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Maximum entries")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON")

	return cmd
}

func historyTable(entries []history.Entry) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TIME", "AGENT", "BRANCH", "TARGETS", "RESULT")
	for _, e := range entries {
		result := fmt.Sprintf("#%d %s", e.BuildNumber, e.WebURL)
		if !e.Succeeded() {
			result = "error: " + e.Error
		}
		t.Row(
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.AgentID,
			e.Branch,
			summarizeTargets(e.Targets),
			result,
		)
	}
	return t.Render()
}

func summarizeTargets(targets []string) string {
	switch len(targets) {
	case 0:
		return "-"
	case 1:
		return targets[0]
	default:
		return fmt.Sprintf("%s +%d", strings.TrimSpace(targets[0]), len(targets)-1)
	}
}
