// Package cli implements the qlctl operator client: cobra commands that
// talk to a running quantum-learning server over its REST API and run
// progress websocket.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/adarsh-anand15/quantum-learning/internal/version"
)

// DefaultServer is used when neither --server nor QL_SERVER is set.
const DefaultServer = "http://localhost:8090"

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Server string
}

// NewRootCommand creates the root command for the qlctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "qlctl",
		Short:         "Operator client for the quantum-learning server",
		Long:          "qlctl submits circuit optimization experiments to a quantum-learning\nserver and tracks them: listing, live progress, cancellation and export.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Server, "server", envOr("QL_SERVER", DefaultServer), "server base URL")

	// Add subcommands
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewCancelCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewPresetsCommand(opts))
	cmd.AddCommand(NewTargetsCommand(opts))

	return cmd
}

// envOr returns the environment variable value, or fallback if unset.
func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
