package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewPresetsCommand creates the presets command.
func NewPresetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "presets",
		Short:         "List the experiment presets shipped with the server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPresets(rootOpts, cmd)
		},
	}

	return cmd
}

func listPresets(opts *RootOptions, cmd *cobra.Command) error {
	client := NewClient(opts.Server)
	presets, err := client.Presets()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(presets) == 0 {
		fmt.Fprintln(out, "No presets found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSOURCE\tKIND\tTARGET\tREPS")
	for _, preset := range presets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			preset.Name,
			preset.Source,
			preset.Spec.Kind,
			formatTarget(preset.Spec.Target),
			preset.Spec.Hyperparameters.Reps,
		)
	}
	return w.Flush()
}
