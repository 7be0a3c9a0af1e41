package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudlab-k8s/stackctl/internal/workflow"
)

// newUpCommand creates the "up" subcommand that converges a target to its declared state.
func newUpCommand(opts *Options) *cobra.Command {
	var autoApprove bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Provision a target: validate, plan, confirm, apply, sync kubeconfig",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			var flow flowEnv
			if err := parseEnv(&flow); err != nil {
				return err
			}
			if !cmd.Flags().Changed("auto-approve") && envPresent("STACKCTL_AUTO_APPROVE") {
				autoApprove = flow.AutoApprove
			}

			cfg, target, err := loadTarget(cmd, opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Minute)
			defer cancel()
			cmd.SetContext(ctx)

			runner := newEngine(cfg, target)
			if err := initEngine(cmd, runner); err != nil {
				return err
			}

			store, _ := newCredentialStore(target, logger)
			wf := workflow.New(runner, nil, store, newStdinConfirmer(), logger)

			logger.Info("provisioning target", "project", cfg.Project, "target", target.Name)
			if err := wf.Up(ctx, target, autoApprove); err != nil {
				return err
			}

			logger.Info("target is up", "target", target.Name, "state", wf.State())
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Apply without a confirmation prompt")
	addVarFlags(cmd)
	addInitFlag(cmd)

	return cmd
}
