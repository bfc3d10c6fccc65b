package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the modactivator CLI
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modactivator",
		Short: "modactivator - dry-run and serve module lifecycle plans",
		Long: `modactivator works with module lifecycle plans: a list of modules and
the modules each one depends on.

It prints the start and stop order of a plan, simulates lifecycle
operations against it, and serves a plan with an HTTP diagnostics surface.`,
		Version: PrintVersion(),
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	cmd.AddCommand(NewOrderCommand())
	cmd.AddCommand(NewSimulateCommand())
	cmd.AddCommand(NewServeCommand())

	return cmd
}

// Version information
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// PrintVersion prints version information
func PrintVersion() string {
	return fmt.Sprintf("modactivator v%s (commit: %s, built on: %s)", Version, Commit, Date)
}
