package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"
)

func (c *CLI) newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <bundle>",
		Short: "Evaluate a standalone bundle without any drive",
		Long:  "Evaluate a standalone bundle without any drive. Use - to read the bundle from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return zerr.With(zerr.Wrap(err, "failed to read bundle"), "path", args[0])
			}
			return c.app.Exec(cmd.Context(), string(data), cmd.OutOrStdout())
		},
	}
}
