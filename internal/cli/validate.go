package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// newValidateCommand creates the "validate" subcommand that checks the terraform configuration.
func newValidateCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the terraform configuration for a target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			cfg, target, err := loadTarget(cmd, opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			cmd.SetContext(ctx)

			runner := newEngine(cfg, target)
			if err := initEngine(cmd, runner); err != nil {
				return err
			}
			if err := runner.Validate(ctx); err != nil {
				return err
			}

			logger.Info("configuration is valid", "target", target.Name)
			return nil
		},
	}

	addVarFlags(cmd)
	addInitFlag(cmd)

	return cmd
}
