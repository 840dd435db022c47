package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Status string
	Kind   string
	Limit  int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Long: `List runs known to the server, newest first.

Example:
  qlctl list
  qlctl list --status running
  qlctl list --kind state --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status (queued|running|completed|failed|cancelled)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter by kind (gate|state)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of runs (0 = all)")

	return cmd
}

func listRuns(opts *ListOptions, cmd *cobra.Command) error {
	client := NewClient(opts.Server)
	list, err := client.ListRuns(opts.Status, opts.Kind, opts.Limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No runs found.")
		return nil
	}

	writeRunTable(out, list)
	return nil
}

// writeRunTable renders the runs as an aligned table.
func writeRunTable(out io.Writer, list []*runs.Run) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tSTATUS\tCOST\tFIDELITY\tITER\tCREATED")
	for _, run := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Name,
			run.Kind,
			run.Status,
			formatOptional(run.FinalCost),
			formatOptional(run.Fidelity),
			run.Iterations,
			run.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
}

// formatOptional renders a nullable metric, "-" when absent.
func formatOptional(value *float64) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%.6f", *value)
}
