package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/targets"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show the full record of one run",
		Example:       "  qlctl show 4f8a2c1e-9b3d-4e7a-8f12-6c5d0a9b3e21",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRun(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func showRun(opts *RootOptions, id string, cmd *cobra.Command) error {
	client := NewClient(opts.Server)
	run, err := client.GetRun(id)
	if err != nil {
		return err
	}

	writeRunDetails(cmd.OutOrStdout(), run)
	return nil
}

// writeRunDetails renders one run as a key/value block.
func writeRunDetails(out io.Writer, run *runs.Run) {
	hp := run.Spec.Hyperparameters

	fmt.Fprintf(out, "ID:           %s\n", run.ID)
	fmt.Fprintf(out, "Name:         %s\n", run.Name)
	fmt.Fprintf(out, "Kind:         %s\n", run.Kind)
	fmt.Fprintf(out, "Status:       %s\n", run.Status)
	fmt.Fprintf(out, "Target:       %s\n", formatTarget(run.Spec.Target))
	fmt.Fprintf(out, "Modes:        %d\n", hp.Modes)
	fmt.Fprintf(out, "Depth:        %d\n", hp.Depth)
	fmt.Fprintf(out, "Cutoff:       %d\n", hp.Cutoff)
	if run.Kind == "gate" {
		fmt.Fprintf(out, "Gate cutoff:  %d\n", hp.GateCutoff)
	}
	fmt.Fprintf(out, "Optimizer:    %s (lr=%g)\n", hp.Optimizer, hp.LearningRate)
	fmt.Fprintf(out, "Iterations:   %d / %d\n", run.Iterations, hp.Reps)
	fmt.Fprintf(out, "Converged:    %t\n", run.Converged)
	fmt.Fprintf(out, "Seed:         %d\n", run.Seed)

	if run.FinalCost != nil {
		fmt.Fprintf(out, "Final cost:   %.6g\n", *run.FinalCost)
	}
	if run.Fidelity != nil {
		fmt.Fprintf(out, "Fidelity:     %.6f\n", *run.Fidelity)
	}
	if run.MeanOverlap != nil {
		fmt.Fprintf(out, "Mean overlap: %.6f\n", *run.MeanOverlap)
	}

	fmt.Fprintf(out, "Created:      %s\n", run.CreatedAt.Format(time.RFC3339))
	if run.StartedAt != nil {
		fmt.Fprintf(out, "Started:      %s\n", run.StartedAt.Format(time.RFC3339))
	}
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "Finished:     %s\n", run.FinishedAt.Format(time.RFC3339))
		if run.StartedAt != nil {
			fmt.Fprintf(out, "Duration:     %s\n", run.FinishedAt.Sub(*run.StartedAt).Round(time.Millisecond))
		}
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:        %s\n", run.Error)
	}
}

// formatTarget renders a target spec as e.g. "cubic_phase (gamma=0.1)".
func formatTarget(target targets.Spec) string {
	if len(target.Params) == 0 {
		return target.Type
	}

	names := make([]string, 0, len(target.Params))
	for name := range target.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%g", name, target.Params[name]))
	}
	return fmt.Sprintf("%s (%s)", target.Type, strings.Join(parts, ", "))
}
