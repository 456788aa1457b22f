// Package cli implements the csvrecord command line tool.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/oleg578/csvrecord/config"
	"github.com/oleg578/csvrecord/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Version is filled when building with ldflags.
var Version string

// NewRootCommand assembles the csvrecord command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "csvrecord",
		Short:         "Inspect, validate and convert CSV and fixed-width files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if getFlag(cmd, "version") {
				fmt.Fprintln(cmd.OutOrStdout(), "csvrecord", version())
				return nil
			}
			return cmd.Help()
		},
	}

	root.Flags().Bool("version", false, "report version of this executable")
	flags := root.PersistentFlags()
	flags.String("config", "", "dialect profile (yaml, toml or json)")
	flags.String("sep", "", "field separator, \\t for tab")
	flags.String("encoding", "", "text encoding of input files, e.g. utf-16 or windows-1252")
	flags.String("locale", "", "culture for numbers and dates, e.g. nl-NL")
	flags.Bool("no-header", false, "the first line holds data, not column names")
	flags.Bool("ignore-trailing-sep", false, "treat a separator right before a line break as a no-op")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")
	flags.BoolP("verbose", "v", false, "increase logging verbosity")

	root.AddCommand(newRowsCommand(), newRecodeCommand(), newCheckCommand())
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func version() string {
	if Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "(unknown version)"
}

// Get an expected flag, or panic if it was never declared.
func getFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		panic(err)
	}
	return r
}

func getString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		panic(err)
	}
	return r
}

// dialect loads the profile named by --config and applies the flags that
// were given explicitly on top of it.
func dialect(cmd *cobra.Command) (*config.Dialect, *logrus.Logger, error) {
	d, err := config.Load(getString(cmd, "config"))
	if err != nil {
		return nil, nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("sep") {
		d.Separator = getString(cmd, "sep")
	}
	if flags.Changed("encoding") {
		d.Encoding = getString(cmd, "encoding")
	}
	if flags.Changed("locale") {
		d.Locale = getString(cmd, "locale")
	}
	if flags.Changed("no-header") {
		d.Header = !getFlag(cmd, "no-header")
	}
	if flags.Changed("ignore-trailing-sep") {
		d.IgnoreTrailingSeparator = getFlag(cmd, "ignore-trailing-sep")
	}
	if flags.Changed("log-level") {
		d.Log.Level = getString(cmd, "log-level")
	}
	if flags.Changed("log-format") {
		d.Log.Format = getString(cmd, "log-format")
	}
	if getFlag(cmd, "verbose") {
		d.Log.Level = "debug"
	}
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	log := logging.New(cmd.ErrOrStderr(), d.Log.Level, d.Log.Format)
	return d, log, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
