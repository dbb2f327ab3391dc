package commands

import "github.com/spf13/cobra"

func (c *CLI) newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph [entry]",
		Short: "List the modules reachable from the entry and how each import resolves",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Graph(cmd.Context(), entryArg(args), c.flags, cmd.OutOrStdout())
		},
	}
}
