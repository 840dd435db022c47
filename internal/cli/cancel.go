package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCancelCommand creates the cancel command.
func NewCancelCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <run-id>",
		Short: "Cancel a queued or running run",
		Long: `Cancel a run. A queued run is cancelled immediately; a running run is
interrupted at its next iteration, keeping the partial trace and the best
parameters found so far.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cancelRun(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func cancelRun(opts *RootOptions, id string, cmd *cobra.Command) error {
	client := NewClient(opts.Server)
	run, err := client.CancelRun(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Run %s is %s\n", run.ID, run.Status)
	return nil
}
