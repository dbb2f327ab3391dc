package commands

import (
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/bootdrive/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newBundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle [entry]",
		Short: "Write a standalone bundle of the entry and everything it requires",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			output, _ := cmd.Flags().GetString("output")
			if output == "" || output == "-" {
				return c.app.Bundle(cmd.Context(), entryArg(args), c.flags, cmd.OutOrStdout())
			}

			f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePerm) //nolint:gosec // path is provided by user
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to create bundle file"), "path", output)
			}
			defer func() {
				if cerr := f.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			return c.app.Bundle(cmd.Context(), entryArg(args), c.flags, f)
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write the bundle to a file instead of stdout")
	return cmd
}
