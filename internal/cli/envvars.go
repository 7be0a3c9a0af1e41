package cli

import (
	"os"
	"strings"

	envparse "github.com/caarlos0/env/v11"
)

// baseEnv defines root CLI defaults sourced from STACKCTL_* env vars.
type baseEnv struct {
	// ConfigPath is the stack.yaml path from STACKCTL_CONFIG.
	ConfigPath string `env:"STACKCTL_CONFIG"`
	// Target is the target name from STACKCTL_TARGET.
	Target string `env:"STACKCTL_TARGET"`
	// LogLevel is the logging level from STACKCTL_LOG_LEVEL.
	LogLevel string `env:"STACKCTL_LOG_LEVEL"`
}

// flowEnv captures STACKCTL_* inputs for the apply/destroy flows.
type flowEnv struct {
	// AutoApprove skips confirmation prompts from STACKCTL_AUTO_APPROVE.
	AutoApprove bool `env:"STACKCTL_AUTO_APPROVE"`
	// SkipReap skips pre-destroy load-balancer cleanup from STACKCTL_SKIP_REAP.
	SkipReap bool `env:"STACKCTL_SKIP_REAP"`
	// Vars is a k=v,k2=v2 list from STACKCTL_VARS.
	Vars string `env:"STACKCTL_VARS"`
	// VarFile is a .env-style path from STACKCTL_VAR_FILE.
	VarFile string `env:"STACKCTL_VAR_FILE"`
}

// parseEnv fills target from STACKCTL_* env vars via caarlos0/env.
func parseEnv(target any) error {
	return envparse.Parse(target)
}

// envPresent reports whether the named env var is set to a non-blank value.
func envPresent(name string) bool {
	v, ok := os.LookupEnv(name)
	return ok && strings.TrimSpace(v) != ""
}
