// Package reaper removes controller-managed resources that block teardown.
//
// Ingress objects materialize cloud load balancers that terraform does not
// track; if they are still attached when destroy runs, subnet and VPC deletion
// fails. The reaper deletes the ingresses and then waits, bounded, for the
// ingress controller to deprovision the load balancers out-of-band.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/briandowns/spinner"

	"github.com/cloudlab-k8s/stackctl/internal/config"
)

// ErrSettleTimeout indicates load balancers were still present when the
// bounded settle wait expired. Callers treat this as a warning: destroy may
// proceed and fail, which beats blocking forever.
var ErrSettleTimeout = errors.New("timed out waiting for load balancers to deprovision")

// IngressClient is the kubectl surface the reaper needs.
type IngressClient interface {
	ListIngresses(ctx context.Context, namespace string) ([]string, error)
	DeleteAllIngresses(ctx context.Context, namespace string) error
}

// Reaper deletes dangling ingress-managed load balancers before destroy.
type Reaper struct {
	client IngressClient
	logger *slog.Logger

	// SettleTimeout bounds the wait for asynchronous deprovisioning.
	SettleTimeout time.Duration
	// PollInterval is the cadence of ingress list checks during the wait.
	PollInterval time.Duration
	// Spinner, when set, animates during the settle wait.
	Spinner *spinner.Spinner
}

// New constructs a Reaper with default settle bounds.
func New(client IngressClient, logger *slog.Logger) *Reaper {
	return &Reaper{
		client:        client,
		logger:        logger,
		SettleTimeout: config.DefaultSettleTimeout,
		PollInterval:  config.DefaultPollInterval,
	}
}

// Reap deletes all ingresses in the namespace and polls until the controller
// has released them or the settle timeout expires. It returns the number of
// ingresses it deleted. A namespace with no ingresses is already clean:
// Reap returns (0, nil) without waiting.
func (r *Reaper) Reap(ctx context.Context, namespace string) (int, error) {
	names, err := r.client.ListIngresses(ctx, namespace)
	if err != nil {
		return 0, fmt.Errorf("enumerate dangling load balancers: %w", err)
	}
	if len(names) == 0 {
		r.logger.Info("no dangling load balancers found", "namespace", namespace)
		return 0, nil
	}

	r.logger.Info("deleting ingress-managed load balancers", "namespace", namespace, "count", len(names), "ingresses", names)
	if err := r.client.DeleteAllIngresses(ctx, namespace); err != nil {
		return 0, fmt.Errorf("delete ingresses in %q: %w", namespace, err)
	}

	if err := r.waitSettled(ctx, namespace); err != nil {
		return len(names), err
	}

	r.logger.Info("load balancers released", "namespace", namespace, "reaped", len(names))
	return len(names), nil
}

// waitSettled polls the ingress list until it is empty or the timeout expires.
func (r *Reaper) waitSettled(ctx context.Context, namespace string) error {
	if r.Spinner != nil {
		r.Spinner.Suffix = " waiting for load balancers to deprovision"
		r.Spinner.Start()
		defer r.Spinner.Stop()
	}

	deadline := time.NewTimer(r.SettleTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(r.PollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w after %s", ErrSettleTimeout, r.SettleTimeout)
		case <-tick.C:
			remaining, err := r.client.ListIngresses(ctx, namespace)
			if err != nil {
				// Transient list failures should not abort the wait.
				r.logger.Warn("could not re-check ingresses during settle wait", "error", err)
				continue
			}
			if len(remaining) == 0 {
				return nil
			}
			r.logger.Debug("still waiting for ingress deletion", "namespace", namespace, "remaining", len(remaining))
		}
	}
}
