// Package config contains the loader and strongly typed model for stack.yaml.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloudlab-k8s/stackctl/internal/env"
)

// StackConfig describes the environments stackctl can provision and tear down.
// It mirrors the structure of stack.yaml after template rendering.
type StackConfig struct {
	// Project is the short project name used in log lines and defaults.
	Project string `yaml:"project"`
	// EnvFiles lists .env files to load before rendering, relative to the config file.
	EnvFiles []string `yaml:"envFiles,omitempty"`
	// DefaultTarget selects which target is used when --target is not given.
	DefaultTarget string `yaml:"defaultTarget,omitempty"`
	// Targets contains the deployable targets keyed by name.
	Targets map[string]Target `yaml:"targets,omitempty"`

	// baseDir is the directory containing the loaded config file.
	baseDir string
}

// Target describes one deployable environment: its terraform root plus the
// identity of the EKS cluster the terraform declares.
type Target struct {
	// Name is the target key; filled in by the loader.
	Name string `yaml:"-"`
	// ClusterName is the expected EKS cluster name. When empty it is read from
	// the terraform output "cluster_name" after apply.
	ClusterName string `yaml:"clusterName,omitempty"`
	// Region is the AWS region. When empty it is read from the terraform
	// output "region" after apply.
	Region string `yaml:"region,omitempty"`
	// Namespace is the namespace whose ingress-managed load balancers must be
	// reaped before destroy.
	Namespace string `yaml:"namespace,omitempty"`
	// TerraformDir is the terraform working directory, relative to the config file.
	TerraformDir string `yaml:"terraformDir"`
	// Kubeconfig optionally overrides the kubeconfig file used by kubectl.
	Kubeconfig string `yaml:"kubeconfig,omitempty"`
	// Profile optionally selects an AWS CLI profile.
	Profile string `yaml:"profile,omitempty"`
	// Reap bounds the wait for asynchronous load-balancer deprovisioning.
	Reap ReapConfig `yaml:"reap,omitempty"`
}

// ReapConfig bounds the reaper's settle wait. Zero values fall back to defaults.
type ReapConfig struct {
	// SettleTimeout is the maximum time to wait for load balancers to
	// disappear after their ingresses are deleted (e.g. "2m").
	SettleTimeout string `yaml:"settleTimeout,omitempty"`
	// PollInterval is the delay between ingress list checks (e.g. "5s").
	PollInterval string `yaml:"pollInterval,omitempty"`
}

const (
	// DefaultSettleTimeout bounds the reap settle wait when unset.
	DefaultSettleTimeout = 2 * time.Minute
	// DefaultPollInterval is the reap poll cadence when unset.
	DefaultPollInterval = 5 * time.Second
)

// SettleTimeoutDuration returns the configured settle timeout or the default.
func (r ReapConfig) SettleTimeoutDuration() (time.Duration, error) {
	return parseDurationOr(r.SettleTimeout, DefaultSettleTimeout)
}

// PollIntervalDuration returns the configured poll interval or the default.
func (r ReapConfig) PollIntervalDuration() (time.Duration, error) {
	return parseDurationOr(r.PollInterval, DefaultPollInterval)
}

func parseDurationOr(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", raw)
	}
	return d, nil
}

// LoadOptions alters how the stack config is loaded and rendered.
type LoadOptions struct {
	// UserVars are inline variables overriding env-file and OS values.
	UserVars env.Vars
	// VarFiles are additional .env-style files merged after EnvFiles.
	VarFiles []string
}

// Load reads, renders and validates the stack.yaml at path.
//
// The file is rendered as a text/template with {{ .Env.NAME }} resolving
// against OS environment, configured envFiles and user vars, in that order of
// increasing precedence.
func Load(path string, opts LoadOptions) (*StackConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stack config %q: %w", path, err)
	}

	baseDir := filepath.Dir(path)

	// First pass: parse untemplated to discover envFiles.
	var pre StackConfig
	if err := yaml.Unmarshal(raw, &pre); err != nil {
		return nil, fmt.Errorf("parse stack config %q: %w", path, err)
	}

	fileVars, err := env.LoadEnvFiles(baseDir, append(pre.EnvFiles, opts.VarFiles...))
	if err != nil {
		return nil, err
	}
	vars := env.Merge(env.FromOS(), fileVars, opts.UserVars)

	rendered, err := render(path, raw, vars)
	if err != nil {
		return nil, err
	}

	var cfg StackConfig
	if err := yaml.Unmarshal(rendered, &cfg); err != nil {
		return nil, fmt.Errorf("parse rendered stack config %q: %w", path, err)
	}
	cfg.baseDir = baseDir

	for name, t := range cfg.Targets {
		t.Name = name
		cfg.Targets[name] = t
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func render(path string, raw []byte, vars env.Vars) ([]byte, error) {
	tmpl, err := template.New(filepath.Base(path)).Option("missingkey=zero").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("template parse %q: %w", path, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Env env.Vars }{Env: vars}); err != nil {
		return nil, fmt.Errorf("template render %q: %w", path, err)
	}
	return buf.Bytes(), nil
}

func (c *StackConfig) validate() error {
	if strings.TrimSpace(c.Project) == "" {
		return fmt.Errorf("stack config: project must be set")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("stack config: at least one target must be defined")
	}
	for name, t := range c.Targets {
		if strings.TrimSpace(t.TerraformDir) == "" {
			return fmt.Errorf("stack config: target %q: terraformDir must be set", name)
		}
		if _, err := t.Reap.SettleTimeoutDuration(); err != nil {
			return fmt.Errorf("stack config: target %q: reap.settleTimeout: %w", name, err)
		}
		if _, err := t.Reap.PollIntervalDuration(); err != nil {
			return fmt.Errorf("stack config: target %q: reap.pollInterval: %w", name, err)
		}
	}
	if c.DefaultTarget != "" {
		if _, ok := c.Targets[c.DefaultTarget]; !ok {
			return fmt.Errorf("stack config: defaultTarget %q is not a defined target", c.DefaultTarget)
		}
	}
	return nil
}

// ResolveTarget returns the named target, falling back to defaultTarget or a
// sole defined target when name is empty.
func (c *StackConfig) ResolveTarget(name string) (Target, error) {
	if name == "" {
		name = c.DefaultTarget
	}
	if name == "" && len(c.Targets) == 1 {
		for n := range c.Targets {
			name = n
		}
	}
	if name == "" {
		return Target{}, fmt.Errorf("no target selected: pass --target or set defaultTarget (available: %s)", strings.Join(c.TargetNames(), ", "))
	}
	t, ok := c.Targets[name]
	if !ok {
		return Target{}, fmt.Errorf("unknown target %q (available: %s)", name, strings.Join(c.TargetNames(), ", "))
	}
	return t, nil
}

// TargetNames returns the sorted target names.
func (c *StackConfig) TargetNames() []string {
	names := make([]string, 0, len(c.Targets))
	for n := range c.Targets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TerraformPath returns the absolute terraform working directory for t.
func (c *StackConfig) TerraformPath(t Target) string {
	if filepath.IsAbs(t.TerraformDir) {
		return t.TerraformDir
	}
	return filepath.Join(c.baseDir, t.TerraformDir)
}
