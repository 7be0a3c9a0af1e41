// Package workflow sequences the apply and destroy flows as an explicit state
// machine with guarded transitions.
//
// The orchestrator owns ordering only: the declarative engine owns
// convergence and its own state locking, the ingress controller owns
// asynchronous load-balancer deprovisioning. Nothing here retries
// automatically; recovery is always an explicit operator re-invocation.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudlab-k8s/stackctl/internal/config"
	"github.com/cloudlab-k8s/stackctl/internal/kubeconfig"
	"github.com/cloudlab-k8s/stackctl/internal/terraform"
)

// ApplyToken is the exact confirmation input required before mutating remote state.
const ApplyToken = "yes"

// Engine is the declarative engine surface the workflow drives.
type Engine interface {
	Validate(ctx context.Context) error
	Plan(ctx context.Context) (*terraform.ChangeSet, error)
	Apply(ctx context.Context) error
	Destroy(ctx context.Context) error
	Output(ctx context.Context, name string) (string, error)
}

// Reaper removes dangling resources that block teardown.
type Reaper interface {
	Reap(ctx context.Context, namespace string) (int, error)
}

// Confirmer blocks for one line of operator input and compares it to expected.
type Confirmer interface {
	Confirm(prompt, expected string) (bool, error)
}

// Workflow drives one target through the apply or destroy flow.
type Workflow struct {
	engine  Engine
	reaper  Reaper
	store   kubeconfig.Store
	confirm Confirmer
	logger  *slog.Logger

	state         State
	reapAttempted bool
}

// New constructs a Workflow in StateInit.
func New(engine Engine, reaper Reaper, store kubeconfig.Store, confirm Confirmer, logger *slog.Logger) *Workflow {
	return &Workflow{
		engine:  engine,
		reaper:  reaper,
		store:   store,
		confirm: confirm,
		logger:  logger,
		state:   StateInit,
	}
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	return w.state
}

// Up runs the apply flow: validate, plan, confirm, apply, sync credentials.
//
// A declined confirmation returns ErrCancelled with no remote mutation. A
// local sync failure after a successful apply is a warning, not an error:
// remote operations are never blocked by local-only problems.
func (w *Workflow) Up(ctx context.Context, target config.Target, autoApprove bool) error {
	if err := w.engine.Validate(ctx); err != nil {
		return w.fail(PhaseValidate, err)
	}
	if err := w.to(StateValidated); err != nil {
		return err
	}

	cs, err := w.engine.Plan(ctx)
	if err != nil {
		return w.fail(PhasePlan, err)
	}
	if err := w.to(StatePlanned); err != nil {
		return err
	}
	w.logger.Info("plan computed", "target", target.Name, "changes", cs.Summary())

	if !autoApprove {
		prompt := fmt.Sprintf("Apply these changes to target %q?", target.Name)
		ok, err := w.confirm.Confirm(prompt, ApplyToken)
		if err != nil {
			return w.fail(PhaseApply, err)
		}
		if !ok {
			return w.cancel()
		}
	}
	if err := w.to(StateConfirmed); err != nil {
		return err
	}

	if err := w.engine.Apply(ctx); err != nil {
		w.logger.Error("apply failed; remote state may be partially converged, re-run up after fixing the cause", "target", target.Name)
		return w.fail(PhaseApply, err)
	}
	if err := w.to(StateApplied); err != nil {
		return err
	}
	w.reapAttempted = false

	creds := w.resolveCredentials(ctx, target)
	art, err := w.store.Upsert(ctx, creds)
	if err != nil {
		w.logger.Warn("local kubeconfig sync failed; remote state is applied, re-run sync manually",
			"cluster", creds.ClusterName, "error", err)
		return nil
	}
	if err := w.to(StateSynced); err != nil {
		return err
	}
	w.logger.Info("local credentials synced",
		"cluster", creds.ClusterName,
		"region", creds.Region,
		"contexts", strings.Join(art.Contexts, ","),
	)
	return nil
}

// Down runs the destroy flow: reap, confirm, destroy, remove credentials.
//
// Reap failures are logged and do not block: blocking forever on a stuck
// controller is worse than a destroy that fails and asks for manual cleanup.
// Destroy failures are terminal and surfaced prominently because dangling
// resources keep billing.
func (w *Workflow) Down(ctx context.Context, target config.Target, autoApprove, skipReap bool) error {
	if skipReap {
		w.logger.Warn("reap skipped by operator; destroy may fail if load balancers remain", "target", target.Name)
		w.reapAttempted = true
	} else {
		reaped, err := w.reaper.Reap(ctx, target.Namespace)
		w.reapAttempted = true
		if err != nil {
			w.logger.Warn("reap incomplete; proceeding to destroy anyway",
				"target", target.Name, "reaped", reaped, "error", err)
		} else {
			w.logger.Info("reap complete", "target", target.Name, "reaped", reaped)
		}
	}
	if err := w.to(StateReaped); err != nil {
		return err
	}

	// Resolve before destroy: outputs disappear with the state.
	creds := w.resolveCredentials(ctx, target)

	if !autoApprove {
		prompt := fmt.Sprintf("Destroy target %q and ALL its resources? This cannot be undone.", target.Name)
		ok, err := w.confirm.Confirm(prompt, ApplyToken)
		if err != nil {
			return w.fail(PhaseDestroy, err)
		}
		if !ok {
			return w.cancel()
		}
	}
	if err := w.to(StateConfirmed); err != nil {
		return err
	}

	if !w.reapAttempted {
		return w.fail(PhaseDestroy, fmt.Errorf("internal ordering violation: destroy requested before reap was attempted"))
	}

	if err := w.engine.Destroy(ctx); err != nil {
		w.logger.Error("DESTROY FAILED: cloud resources may remain and continue to bill; clean up manually and re-run down",
			"target", target.Name)
		return w.fail(PhaseDestroy, err)
	}
	if err := w.to(StateDestroyed); err != nil {
		return err
	}

	if creds.ClusterName != "" {
		if err := w.store.Remove(ctx, creds.ClusterName); err != nil {
			w.logger.Warn("local kubeconfig cleanup failed; stale entries may remain",
				"cluster", creds.ClusterName, "error", err)
			return nil
		}
	}
	if err := w.to(StateDesynced); err != nil {
		return err
	}
	w.logger.Info("target destroyed and local credentials removed", "target", target.Name)
	return nil
}

// resolveCredentials reads the deployment identity from engine outputs,
// falling back to the configured values when an output is absent.
func (w *Workflow) resolveCredentials(ctx context.Context, target config.Target) kubeconfig.Credentials {
	creds := kubeconfig.Credentials{
		ClusterName: target.ClusterName,
		Region:      target.Region,
	}
	if name, err := w.engine.Output(ctx, "cluster_name"); err == nil && name != "" {
		creds.ClusterName = name
	}
	if region, err := w.engine.Output(ctx, "region"); err == nil && region != "" {
		creds.Region = region
	}
	return creds
}

func (w *Workflow) to(next State) error {
	from := w.state
	if !CanTransition(from, next) {
		w.state = StateFailed
		return fmt.Errorf("illegal workflow transition %s -> %s", from, next)
	}
	w.logger.Debug("workflow transition", "from", from, "to", next)
	w.state = next
	return nil
}

func (w *Workflow) fail(phase Phase, err error) error {
	w.state = StateFailed
	return &PhaseError{Phase: phase, Err: err}
}

func (w *Workflow) cancel() error {
	w.state = StateCancelled
	return ErrCancelled
}
