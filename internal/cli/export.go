package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a run's trace, parameters and spec to files",
		Long: `Export a run to a directory as three files:

  trace.csv    per-iteration training trace
  params.json  optimized parameter vector
  spec.yaml    the submitted experiment spec

Example:
  qlctl export 4f8a2c1e-9b3d-4e7a-8f12-6c5d0a9b3e21 --out ./results`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportRun(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Out, "out", ".", "output directory (created if missing)")

	return cmd
}

func exportRun(opts *ExportOptions, id string, cmd *cobra.Command) error {
	client := NewClient(opts.Server)

	run, err := client.GetRun(id)
	if err != nil {
		return err
	}
	trace, err := client.Trace(id)
	if err != nil {
		return err
	}
	params, err := client.Params(id)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.Out, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := writeTraceCSV(filepath.Join(opts.Out, "trace.csv"), trace); err != nil {
		return err
	}
	if err := writeParamsJSON(filepath.Join(opts.Out, "params.json"), params); err != nil {
		return err
	}
	if err := writeSpecYAML(filepath.Join(opts.Out, "spec.yaml"), run.Spec); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exported run %s to %s\n", run.ID, opts.Out)
	fmt.Fprintf(out, "  trace.csv    (%d points)\n", len(trace))
	fmt.Fprintf(out, "  params.json  (%d parameters)\n", len(params))
	fmt.Fprintf(out, "  spec.yaml\n")
	return nil
}

// writeTraceCSV writes the trace with one row per iteration.
func writeTraceCSV(path string, trace []synthesis.TracePoint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"iteration", "cost", "fidelity", "mean_overlap", "grad_norm"}); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	for _, point := range trace {
		row := []string{
			strconv.Itoa(point.Iteration),
			strconv.FormatFloat(point.Cost, 'g', -1, 64),
			strconv.FormatFloat(point.Fidelity, 'g', -1, 64),
			strconv.FormatFloat(point.MeanOverlap, 'g', -1, 64),
			strconv.FormatFloat(point.GradNorm, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

// writeParamsJSON writes the parameter vector as a JSON array.
func writeParamsJSON(path string, params []float64) error {
	encoded, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding parameters: %w", err)
	}
	if err := os.WriteFile(path, append(encoded, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// writeSpecYAML writes the experiment spec back out as YAML, round-trippable
// through qlctl submit.
func writeSpecYAML(path string, spec synthesis.ExperimentSpec) error {
	encoded, err := yaml.Marshal(spec)
	if err != nil {
		return fmt.Errorf("encoding spec: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
