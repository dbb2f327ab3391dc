package commands

import "github.com/spf13/cobra"

func (c *CLI) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [entry]",
		Short: "Warm up, execute the entry and print its export value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Run(cmd.Context(), entryArg(args), c.flags, cmd.OutOrStdout())
		},
	}
}
