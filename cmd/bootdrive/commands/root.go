// Package commands implements the CLI commands for bootdrive.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/bootdrive/internal/build"
	"go.trai.ch/bootdrive/internal/core/domain"
)

// CLI represents the command line interface for bootdrive.
type CLI struct {
	app     Application
	logs    LogSettings
	rootCmd *cobra.Command
	flags   domain.Options
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, entry string, opts domain.Options, out io.Writer) error
	Bundle(ctx context.Context, entry string, opts domain.Options, out io.Writer) error
	Exec(ctx context.Context, text string, out io.Writer) error
	Graph(ctx context.Context, entry string, opts domain.Options, out io.Writer) error
	Import(ctx context.Context, src string, opts domain.Options, ignores []string) (int, error)
}

// LogSettings is the part of the logger the global flags control.
type LogSettings interface {
	SetVerbose(enable bool)
	SetJSON(enable bool)
}

// New creates a new CLI instance with the given app. logs may be nil.
func New(a Application, logs LogSettings) *CLI {
	rootCmd := &cobra.Command{
		Use:           "bootdrive",
		Short:         "Load, run and bundle CommonJS programs straight from a drive",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		logs:    logs,
		rootCmd: rootCmd,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.flags.Drive, "drive", "d", "", "Drive location: a folder, sqlite://<file> or memory:")
	pf.StringVar(&c.flags.Cwd, "cwd", "", "Base directory of the local addon artifact cache")
	pf.StringVar(&c.flags.Platform, "platform", "", "Platform to resolve addon artifacts for")
	pf.StringVar(&c.flags.Architecture, "arch", "", "Architecture to resolve addon artifacts for")
	pf.StringVar(&c.flags.Runtime, "runtime", "", "Runtime family of addon artifacts: node or bare")
	pf.StringSliceVar(&c.flags.AdditionalBuiltins, "add-module", nil, "Extra module names passed through to the host")
	pf.BoolVar(&c.flags.AbsoluteArtifactPaths, "absolute-artifact-paths", false, "Reference addon artifacts by absolute path in bundles")
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.Bool("json", false, "Log as JSON")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if c.logs == nil {
			return
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json")
		c.logs.SetVerbose(verbose)
		c.logs.SetJSON(jsonLogs)
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newBundleCmd())
	rootCmd.AddCommand(c.newExecCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newImportCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

func entryArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
