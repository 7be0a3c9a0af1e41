package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// newOutputsCommand creates the "outputs" subcommand that prints engine outputs as a table.
func newOutputsCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "Show terraform outputs for a target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, target, err := loadTarget(cmd, opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			runner := newEngine(cfg, target)
			outputs, err := runner.Outputs(ctx)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(outputs))
			for name := range outputs {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Name", "Value"})
			for _, name := range names {
				out := outputs[name]
				value := "(sensitive)"
				if !out.Sensitive {
					if s := out.StringValue(); s != "" {
						value = s
					} else {
						value = fmt.Sprintf("%v", out.Value)
					}
				}
				tw.AppendRow(table.Row{name, value})
			}
			tw.Render()
			return nil
		},
	}

	addVarFlags(cmd)

	return cmd
}
