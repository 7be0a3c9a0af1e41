package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cloudlab-k8s/stackctl/internal/awscli"
	"github.com/cloudlab-k8s/stackctl/internal/config"
	"github.com/cloudlab-k8s/stackctl/internal/env"
	"github.com/cloudlab-k8s/stackctl/internal/kube"
	"github.com/cloudlab-k8s/stackctl/internal/kubeconfig"
	"github.com/cloudlab-k8s/stackctl/internal/logging"
	"github.com/cloudlab-k8s/stackctl/internal/terraform"
)

// parseInlineVarsAndFiles reads the --vars and --var-file flags, with
// STACKCTL_VARS / STACKCTL_VAR_FILE as fallbacks.
func parseInlineVarsAndFiles(cmd *cobra.Command) (env.Vars, []string, error) {
	var flow flowEnv
	if err := parseEnv(&flow); err != nil {
		return nil, nil, err
	}

	rawVars := cmd.Flag("vars").Value.String()
	if rawVars == "" && envPresent("STACKCTL_VARS") {
		rawVars = flow.Vars
	}
	inlineVars, err := env.ParseInlineVars(rawVars)
	if err != nil {
		return nil, nil, err
	}

	varFile := cmd.Flag("var-file").Value.String()
	if varFile == "" && envPresent("STACKCTL_VAR_FILE") {
		varFile = flow.VarFile
	}
	var varFiles []string
	if varFile != "" {
		varFiles = append(varFiles, varFile)
	}
	return inlineVars, varFiles, nil
}

// addVarFlags registers the --vars/--var-file flags used by most commands.
func addVarFlags(cmd *cobra.Command) {
	cmd.Flags().String("vars", "", "Additional variables in k=v,k2=v2 format")
	cmd.Flags().String("var-file", "", "Path to .env file with additional variables")
}

// loadTarget loads the stack config and resolves the selected target.
func loadTarget(cmd *cobra.Command, opts *Options) (*config.StackConfig, config.Target, error) {
	inlineVars, varFiles, err := parseInlineVarsAndFiles(cmd)
	if err != nil {
		return nil, config.Target{}, err
	}

	cfg, err := config.Load(opts.ConfigPath, config.LoadOptions{
		UserVars: inlineVars,
		VarFiles: varFiles,
	})
	if err != nil {
		return nil, config.Target{}, err
	}

	target, err := cfg.ResolveTarget(opts.Target)
	if err != nil {
		return nil, config.Target{}, err
	}
	return cfg, target, nil
}

// newEngine builds a terraform runner for the target's working directory.
func newEngine(cfg *config.StackConfig, target config.Target) *terraform.Runner {
	runner := terraform.NewRunner(cfg.TerraformPath(target))
	if target.Profile != "" {
		runner.ExtraEnv = env.Vars{"AWS_PROFILE": target.Profile}
	}
	return runner
}

// newCredentialStore builds the kubeconfig store for the target.
func newCredentialStore(target config.Target, logger *slog.Logger) (*kubeconfig.EKSStore, *kube.Client) {
	kubeClient := kube.NewClient(target.Kubeconfig, "")
	eks := awscli.NewEKS(target.Profile, target.Kubeconfig)
	eks.Stdout = logging.NewToolWriter(logger, "aws")
	eks.Stderr = logging.NewToolWriter(logger, "aws")
	return kubeconfig.NewEKSStore(eks, kubeClient, logger), kubeClient
}

// initEngine runs terraform init so validate/plan have providers available.
func initEngine(cmd *cobra.Command, runner *terraform.Runner) error {
	skip, _ := cmd.Flags().GetBool("skip-init")
	if skip {
		return nil
	}
	if err := runner.Init(cmd.Context()); err != nil {
		return fmt.Errorf("terraform init: %w", err)
	}
	return nil
}

// addInitFlag registers --skip-init for commands that run terraform.
func addInitFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("skip-init", false, "Skip terraform init before running")
}
