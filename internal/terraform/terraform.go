// Package terraform provides low-level integration with the terraform CLI.
//
// The orchestrator never parses or mutates terraform's state file: it only
// triggers transitions (validate, plan, apply, destroy) and reads named
// outputs. Engine diagnostics are passed through to the operator verbatim.
package terraform

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/cloudlab-k8s/stackctl/internal/env"
)

// Runner wraps terraform execution against a single working directory.
type Runner struct {
	// Dir is the terraform working directory.
	Dir string
	// ExtraEnv is appended to the process environment (e.g. AWS_PROFILE).
	ExtraEnv env.Vars
	// Stdout and Stderr receive the engine's own output. Defaults to the
	// process streams so diagnostics reach the operator untouched.
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner constructs a Runner for the given working directory.
func NewRunner(dir string) *Runner {
	return &Runner{Dir: dir}
}

// Init runs terraform init without interactive input.
func (r *Runner) Init(ctx context.Context) error {
	return r.run(ctx, "init", "-input=false")
}

// Validate checks the configuration for syntax and internal consistency.
func (r *Runner) Validate(ctx context.Context) error {
	return r.run(ctx, "validate")
}

// Plan computes the diff against current state and returns its summary.
// The plan text is also streamed to Stdout for the operator to review.
func (r *Runner) Plan(ctx context.Context) (*ChangeSet, error) {
	out, err := r.runAndCapture(ctx, "plan", "-input=false", "-no-color")
	if _, werr := r.stdout().Write(out); werr != nil {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	return ParseChangeSet(string(out)), nil
}

// Apply converges remote state toward the declared state. The caller owns
// confirmation; apply here is always non-interactive.
func (r *Runner) Apply(ctx context.Context) error {
	return r.run(ctx, "apply", "-input=false", "-auto-approve")
}

// Destroy deletes all resources tracked in state. The caller owns confirmation.
func (r *Runner) Destroy(ctx context.Context) error {
	return r.run(ctx, "destroy", "-input=false", "-auto-approve")
}

// Output reads a single named output as a raw string.
func (r *Runner) Output(ctx context.Context, name string) (string, error) {
	out, err := r.runAndCapture(ctx, "output", "-raw", name)
	if err != nil {
		return "", fmt.Errorf("terraform output %q: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Outputs reads all outputs via output -json.
func (r *Runner) Outputs(ctx context.Context) (map[string]Output, error) {
	out, err := r.runAndCapture(ctx, "output", "-json")
	if err != nil {
		return nil, fmt.Errorf("terraform output -json: %w", err)
	}
	return ParseOutputs(out)
}

func (r *Runner) run(ctx context.Context, args ...string) error {
	cmd := r.command(ctx, args...)
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.stderr()

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("terraform %s failed: %w", args[0], err)
	}
	return nil
}

func (r *Runner) runAndCapture(ctx context.Context, args ...string) ([]byte, error) {
	cmd := r.command(ctx, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = r.stderr()

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), fmt.Errorf("terraform %s failed: %w", args[0], err)
	}
	return stdout.Bytes(), nil
}

func (r *Runner) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "terraform", args...)
	cmd.Dir = r.Dir
	if len(r.ExtraEnv) > 0 {
		cmd.Env = append(os.Environ(), r.ExtraEnv.Environ()...)
	}
	return cmd
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout != nil {
		return r.Stdout
	}
	return os.Stdout
}

func (r *Runner) stderr() io.Writer {
	if r.Stderr != nil {
		return r.Stderr
	}
	return os.Stderr
}
