package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <folder>",
		Short: "Copy a local folder into the drive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ignores, _ := cmd.Flags().GetStringSlice("ignore")
			count, err := c.app.Import(cmd.Context(), args[0], c.flags, ignores)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d files\n", count)
			return nil
		},
	}
	cmd.Flags().StringSlice("ignore", nil, "Glob patterns of file names to skip")
	return cmd
}
