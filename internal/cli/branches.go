package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/devices-agents/agentboard/internal/app"
	"github.com/devices-agents/agentboard/internal/github"
	"github.com/spf13/cobra"
)

// NewBranchesCommand creates the branches command.
func NewBranchesCommand(root *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List repository branches",
		Long:  "List repository branches, main, master and develop first. Needs GITHUB_TOKEN.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(root, func(a *app.App) error {
				branches, err := a.FetchBranches(context.Background())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, branches)
				}

				out := cmd.OutOrStdout()
				current := a.Branch(context.Background())
				defaults := github.DefaultBranches(branches)
				for _, b := range branches {
					mark := " "
					if b == current {
						mark = "*"
					}
					suffix := ""
					if slices.Contains(defaults, b) {
						suffix = "  (default)"
					}
					fmt.Fprintf(out, "%s %s%s\n", mark, b, suffix)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
