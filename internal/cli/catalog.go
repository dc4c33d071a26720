package cli

import (
	"context"
	"fmt"

	"github.com/devices-agents/agentboard/internal/app"
	"github.com/spf13/cobra"
)

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the Zephyr test catalog",
	}

	cmd.AddCommand(newCatalogFetchCommand(root), newCatalogShowCommand(root))

	return cmd
}

func newCatalogFetchCommand(root *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the test catalog from Zephyr",
		Long:  "Walk the configured Zephyr root folder and write every test case to the catalog file. Needs ZEPHYR_TOKEN.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(root, func(a *app.App) error {
				path := out
				if path == "" {
					path = a.Config().Catalog
				}
				c, err := a.RefreshCatalog(context.Background(), path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tests in %d folders to %s\n", c.TotalTests(), len(c.Folders), path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (default: configured catalog)")

	return cmd
}

func newCatalogShowCommand(root *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the test catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(root, func(a *app.App) error {
				c, err := a.LoadCatalog()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, c)
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)  %d tests, generated %s\n",
					c.RootFolderName, c.RootFolderID, c.TotalTests(), c.GeneratedAt.Format("2006-01-02 15:04"))
				for _, f := range c.Folders {
					fmt.Fprintf(out, "%s (%d)\n", f.Name, len(f.Tests))
					for _, tc := range f.Tests {
						fmt.Fprintf(out, "  %-12s %s  [%s]\n", tc.Key, tc.Name, tc.Status)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
