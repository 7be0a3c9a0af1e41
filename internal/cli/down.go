package cli

import (
	"context"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/cloudlab-k8s/stackctl/internal/reaper"
	"github.com/cloudlab-k8s/stackctl/internal/workflow"
)

// newDownCommand creates the "down" subcommand that tears a target down.
func newDownCommand(opts *Options) *cobra.Command {
	var (
		autoApprove bool
		skipReap    bool
	)

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Tear a target down: reap load balancers, confirm, destroy, clean kubeconfig",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			var flow flowEnv
			if err := parseEnv(&flow); err != nil {
				return err
			}
			if !cmd.Flags().Changed("auto-approve") && envPresent("STACKCTL_AUTO_APPROVE") {
				autoApprove = flow.AutoApprove
			}
			if !cmd.Flags().Changed("skip-reap") && envPresent("STACKCTL_SKIP_REAP") {
				skipReap = flow.SkipReap
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

			store, kubeClient := newCredentialStore(target, logger)

			reap := reaper.New(kubeClient, logger)
			if reap.SettleTimeout, err = target.Reap.SettleTimeoutDuration(); err != nil {
				return err
			}
			if reap.PollInterval, err = target.Reap.PollIntervalDuration(); err != nil {
				return err
			}
			reap.Spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))

			wf := workflow.New(runner, reap, store, newStdinConfirmer(), logger)

			logger.Info("tearing target down", "project", cfg.Project, "target", target.Name)
			if err := wf.Down(ctx, target, autoApprove, skipReap); err != nil {
				return err
			}

			logger.Info("target is down", "target", target.Name, "state", wf.State())
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Destroy without a confirmation prompt")
	cmd.Flags().BoolVar(&skipReap, "skip-reap", false, "Skip pre-destroy load-balancer cleanup (destroy may fail)")
	addVarFlags(cmd)
	addInitFlag(cmd)

	return cmd
}
