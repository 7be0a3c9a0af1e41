package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
)

// newDoctorCommand creates the "doctor" subcommand that runs environment preflight checks.
func newDoctorCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run environment preflight checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			for _, tool := range []string{"terraform", "aws", "kubectl"} {
				path, err := exec.LookPath(tool)
				if err != nil {
					return fmt.Errorf("required tool %q not found on PATH", tool)
				}
				logger.Info("tool found", "tool", tool, "path", path)
			}

			cfg, target, err := loadTarget(cmd, opts)
			if err != nil {
				return err
			}
			logger.Info("stack config loaded", "project", cfg.Project, "targets", cfg.TargetNames())

			tfDir := cfg.TerraformPath(target)
			info, err := os.Stat(tfDir)
			if err != nil || !info.IsDir() {
				return fmt.Errorf("terraform directory %q for target %q does not exist", tfDir, target.Name)
			}
			logger.Info("terraform directory present", "target", target.Name, "dir", tfDir)

			if err := exec.CommandContext(ctx, "terraform", "version").Run(); err != nil {
				return fmt.Errorf("terraform is not runnable: %w", err)
			}

			logger.Info("doctor checks completed successfully", "target", target.Name)
			return nil
		},
	}

	addVarFlags(cmd)

	return cmd
}
