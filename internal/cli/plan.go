package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// newPlanCommand creates the "plan" subcommand that computes and prints the change set.
func newPlanCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the change set for a target without applying it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, target, err := loadTarget(cmd, opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Minute)
			defer cancel()
			cmd.SetContext(ctx)

			runner := newEngine(cfg, target)
			if err := initEngine(cmd, runner); err != nil {
				return err
			}
			if err := runner.Validate(ctx); err != nil {
				return err
			}

			cs, err := runner.Plan(ctx)
			if err != nil {
				return err
			}

			logger.Info("plan computed", "target", target.Name, "changes", cs.Summary())
			return nil
		},
	}

	addVarFlags(cmd)
	addInitFlag(cmd)

	return cmd
}
