package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SubmitOptions holds flags for the submit command.
type SubmitOptions struct {
	*RootOptions
	File  string
	Name  string
	Watch bool
}

// NewSubmitCommand creates the submit command.
func NewSubmitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SubmitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an experiment from a YAML file",
		Long: `Submit an experiment spec to the server's run queue.

Fields omitted from the YAML keep the server's defaults, so a minimal spec
only needs a name, kind and target.

Example:
  qlctl submit -f cubic-phase.yaml
  qlctl submit -f cat-state.yaml --name cat-sweep-3 --watch`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitRun(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "experiment spec YAML (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "override the run name from the spec")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "stream progress until the run finishes")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func submitRun(opts *SubmitOptions, cmd *cobra.Command) error {
	raw, err := os.ReadFile(opts.File)
	if err != nil {
		return fmt.Errorf("reading spec file: %w", err)
	}

	// Decoded generically so only the fields the YAML actually sets reach
	// the server; a typed struct would send zeros for everything else.
	var spec map[string]interface{}
	if err := yaml.Unmarshal(raw, &spec); err != nil {
		return fmt.Errorf("parsing spec file: %w", err)
	}
	if opts.Name != "" {
		spec["name"] = opts.Name
	}

	client := NewClient(opts.Server)
	run, err := client.SubmitRun(spec)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Submitted run %s\n", run.ID)
	fmt.Fprintf(out, "  Name:   %s\n", run.Name)
	fmt.Fprintf(out, "  Kind:   %s\n", run.Kind)
	fmt.Fprintf(out, "  Status: %s\n", run.Status)

	if !opts.Watch {
		return nil
	}

	fmt.Fprintln(out)
	return watchRun(cmd, opts.Server, run.ID)
}
