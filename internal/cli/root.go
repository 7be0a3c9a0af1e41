// Package cli defines the command-line interface for stackctl.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudlab-k8s/stackctl/internal/logging"
)

const (
	// defaultConfigPath is the default path to the stack configuration file.
	defaultConfigPath = "stack.yaml"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ConfigPath string
	Target     string
	LogLevel   logging.Level
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	rootOpts := &Options{
		ConfigPath: defaultConfigPath,
		LogLevel:   logging.LevelInfo,
	}

	var envDefaults baseEnv
	if err := parseEnv(&envDefaults); err != nil {
		return err
	}
	if envDefaults.ConfigPath != "" {
		rootOpts.ConfigPath = envDefaults.ConfigPath
	}
	if envDefaults.Target != "" {
		rootOpts.Target = envDefaults.Target
	}

	rootCmd := newRootCommand(rootOpts, logger, envDefaults.LogLevel)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger, defaultLogLevel string) *cobra.Command {
	if defaultLogLevel == "" {
		defaultLogLevel = "info"
	}

	cmd := &cobra.Command{
		Use:   "stackctl",
		Short: "stackctl provisions and tears down terraform-managed EKS environments",
		Long: "stackctl sequences terraform, aws and kubectl to converge an EKS environment to its declared state, " +
			"reap controller-managed load balancers before teardown, and keep the local kubeconfig in sync with remote state.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.ParseLevel(cmd.Flag("log-level").Value.String())
			opts.LogLevel = level
			logger = logging.NewLogger(os.Stderr, level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath, "Path to stack.yaml configuration file")
	cmd.PersistentFlags().StringVarP(&opts.Target, "target", "t", opts.Target, "Target environment name")
	cmd.PersistentFlags().String("log-level", defaultLogLevel, "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newValidateCommand(opts),
		newPlanCommand(opts),
		newUpCommand(opts),
		newDownCommand(opts),
		newOutputsCommand(opts),
		newStatusCommand(opts),
		newDoctorCommand(opts),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
