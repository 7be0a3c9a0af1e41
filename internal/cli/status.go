package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// newStatusCommand creates the "status" subcommand that checks cluster reachability
// and lists the ingress objects that would block a destroy.
func newStatusCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check cluster connectivity and list blocking ingresses for a target",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			_, target, err := loadTarget(cmd, opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			_, kubeClient := newCredentialStore(target, logger)

			if err := kubeClient.ClusterInfo(ctx); err != nil {
				return err
			}

			ingresses, err := kubeClient.ListIngresses(ctx, target.Namespace)
			if err != nil {
				return err
			}

			if len(ingresses) == 0 {
				logger.Info("no ingress-managed load balancers", "target", target.Name, "namespace", target.Namespace)
				return nil
			}
			logger.Info("ingress-managed load balancers present; these are reaped before destroy",
				"target", target.Name,
				"namespace", target.Namespace,
				"ingresses", ingresses,
			)
			return nil
		},
	}

	addVarFlags(cmd)

	return cmd
}
