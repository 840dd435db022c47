package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adarsh-anand15/quantum-learning/internal/targets"
)

// NewTargetsCommand creates the targets command.
func NewTargetsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "targets",
		Short:         "List the gate and state targets the server can learn",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTargets(rootOpts, cmd)
		},
	}

	return cmd
}

func listTargets(opts *RootOptions, cmd *cobra.Command) error {
	client := NewClient(opts.Server)
	catalog, err := client.Targets()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Gate targets (kind: gate):")
	writeTargetTable(out, catalog.Gates)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "State targets (kind: state):")
	writeTargetTable(out, catalog.States)
	return nil
}

// writeTargetTable renders one catalog half as an aligned table.
func writeTargetTable(out io.Writer, list []targets.Info) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  TYPE\tMODES\tPARAMS\tDESCRIPTION")
	for _, info := range list {
		params := "-"
		if len(info.Params) > 0 {
			params = strings.Join(info.Params, ", ")
		}
		modes := "any"
		if info.Modes > 0 {
			modes = fmt.Sprintf("%d", info.Modes)
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", info.Type, modes, params, info.Description)
	}
	w.Flush()
}
