// Topology-cfg walks an operator through planning a Synapse deployment.
//
// It asks for the server name, delegation, TLS termination, reverse proxy,
// listener ports and database, then renders homeserver.yaml together with
// the reverse proxy and delegation snippets the chosen topology needs.
// Answers are saved as named sessions so a run can be resumed.
//
// Usage:
//
//	topology-cfg [command] [flags]
//
// Running without arguments launches the interactive wizard.
// See 'topology-cfg --help' for available commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/synapse-topology/internal/logging"
	"github.com/muurk/synapse-topology/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	err := newRootCmd().Execute()
	logging.Sync()
	if err != nil {
		if !errors.Is(err, errRenderFailed) && !errors.Is(err, errRemoteFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// options holds the flags shared by all commands.
type options struct {
	session    string
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "topology-cfg",
		Short: "Synapse Topology Wizard",
		Long: `Plan a Synapse homeserver deployment and generate its configuration.

The wizard asks how the server is reached (delegation, TLS, reverse proxy)
and renders homeserver.yaml plus any reverse proxy and delegation files.

If no command is specified, the interactive wizard will launch automatically.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Default behavior: run wizard when no subcommand provided
			return runWizard(cmd, opts, false)
		},
	}

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&opts.session, "session", "", "Session name (default from preferences)")
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to the session registry (default in the user config dir)")

	rootCmd.AddCommand(
		newWizardCmd(opts),
		newNextCmd(),
		newWalkCmd(),
		newRenderCmd(opts),
		newSessionsCmd(opts),
		newScanCmd(),
		newRemoteCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "topology-cfg %s\n", version.Get())
		},
	}
}
