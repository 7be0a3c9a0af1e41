// Package awscli wraps the AWS CLI commands stackctl relies on.
package awscli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// EKS invokes aws eks subcommands.
type EKS struct {
	// Profile optionally selects an AWS CLI profile.
	Profile string
	// Kubeconfig optionally overrides the kubeconfig file aws writes to.
	Kubeconfig string
	// Stdout and Stderr receive the CLI's own output; default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// NewEKS constructs an EKS CLI wrapper.
func NewEKS(profile, kubeconfig string) *EKS {
	return &EKS{Profile: profile, Kubeconfig: kubeconfig}
}

// UpdateKubeconfig writes or refreshes the kubeconfig entries for the cluster.
// The underlying command is idempotent.
func (e *EKS) UpdateKubeconfig(ctx context.Context, region, clusterName string) error {
	args := []string{"eks", "update-kubeconfig", "--region", region, "--name", clusterName}
	if e.Profile != "" {
		args = append(args, "--profile", e.Profile)
	}

	cmd := exec.CommandContext(ctx, "aws", args...)
	cmd.Stdout = e.stdout()
	cmd.Stderr = e.stderr()
	if e.Kubeconfig != "" {
		cmd.Env = append(os.Environ(), "KUBECONFIG="+e.Kubeconfig)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("aws eks update-kubeconfig for %q in %q failed: %w", clusterName, region, err)
	}
	return nil
}

func (e *EKS) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *EKS) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}
