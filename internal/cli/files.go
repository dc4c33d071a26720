package cli

import (
	"context"
	"fmt"

	"github.com/devices-agents/agentboard/internal/app"
	"github.com/spf13/cobra"
)

// NewFilesCommand creates the files command.
func NewFilesCommand(root *RootOptions) *cobra.Command {
	var (
		branch string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "files",
		Short: "List source files that can be targeted",
		Long:  "List the files on a branch that pass the configured include and exclude patterns.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(root, func(a *app.App) error {
				ctx := context.Background()
				if branch == "" {
					branch = a.Branch(ctx)
				}
				files, err := a.FetchFiles(ctx, branch)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, files)
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "Branch to list (default: last selected)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
