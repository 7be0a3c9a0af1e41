package main

import (
	"errors"
	"os"

	"github.com/cloudlab-k8s/stackctl/internal/cli"
	"github.com/cloudlab-k8s/stackctl/internal/logging"
	"github.com/cloudlab-k8s/stackctl/internal/workflow"
)

// main is the entry point for the stackctl CLI binary.
func main() {
	logger := logging.NewLogger(os.Stderr, logging.LevelInfo)
	if err := cli.Execute(os.Args[1:], logger); err != nil {
		// A declined confirmation is a cancellation, not a failure.
		if errors.Is(err, workflow.ErrCancelled) {
			logger.Info("operation cancelled, no changes made")
			os.Exit(0)
		}
		if phase := workflow.FailedPhase(err); phase != "" {
			logger.Error("workflow failed", "phase", phase, "error", err)
		} else {
			logger.Error("command failed", "error", err)
		}
		os.Exit(1)
	}
}
