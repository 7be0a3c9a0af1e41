// Package kubeconfig keeps local cluster credentials in sync with remote state.
//
// After apply, the store writes kubeconfig entries for the freshly provisioned
// cluster; after destroy it removes every entry referencing the cluster so the
// local config never points at a destroyed target.
package kubeconfig

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Credentials identifies a provisioned cluster, as read from engine outputs.
type Credentials struct {
	ClusterName string
	Region      string
}

// Artifact describes the kubeconfig entries a sync produced or matched.
type Artifact struct {
	// Contexts are the context entry names referencing the cluster.
	Contexts []string
	// Clusters are the cluster entry names referencing the cluster.
	Clusters []string
}

// Store abstracts local credential bookkeeping keyed by cluster name.
type Store interface {
	// Upsert writes credentials for the cluster and verifies connectivity.
	Upsert(ctx context.Context, creds Credentials) (Artifact, error)
	// Remove deletes every local entry referencing the cluster. Missing
	// entries are not errors; Remove is best-effort and never blocks the
	// calling workflow.
	Remove(ctx context.Context, clusterName string) error
}

// kubeconfigWriter writes cluster credentials into the local kubeconfig.
type kubeconfigWriter interface {
	UpdateKubeconfig(ctx context.Context, region, clusterName string) error
}

// entryManager enumerates and removes kubeconfig entries.
type entryManager interface {
	ListContexts(ctx context.Context) ([]string, error)
	ListClusters(ctx context.Context) ([]string, error)
	CurrentContext(ctx context.Context) (string, error)
	DeleteContext(ctx context.Context, name string) error
	DeleteCluster(ctx context.Context, name string) error
	UnsetCurrentContext(ctx context.Context) error
	ClusterInfo(ctx context.Context) error
}

// EKSStore implements Store on top of the aws and kubectl CLIs.
type EKSStore struct {
	writer  kubeconfigWriter
	entries entryManager
	logger  *slog.Logger
}

// NewEKSStore constructs an EKSStore.
func NewEKSStore(writer kubeconfigWriter, entries entryManager, logger *slog.Logger) *EKSStore {
	return &EKSStore{writer: writer, entries: entries, logger: logger}
}

// Upsert writes kubeconfig entries for the cluster and checks connectivity.
func (s *EKSStore) Upsert(ctx context.Context, creds Credentials) (Artifact, error) {
	if creds.ClusterName == "" || creds.Region == "" {
		return Artifact{}, fmt.Errorf("kubeconfig upsert requires cluster name and region, got name=%q region=%q", creds.ClusterName, creds.Region)
	}

	if err := s.writer.UpdateKubeconfig(ctx, creds.Region, creds.ClusterName); err != nil {
		return Artifact{}, err
	}

	if err := s.entries.ClusterInfo(ctx); err != nil {
		return Artifact{}, fmt.Errorf("cluster %q is not reachable after kubeconfig update: %w", creds.ClusterName, err)
	}

	art, err := s.matchEntries(ctx, creds.ClusterName)
	if err != nil {
		// Entries were written; matching them is informational only.
		s.logger.Warn("could not enumerate kubeconfig entries", "cluster", creds.ClusterName, "error", err)
		return Artifact{}, nil
	}
	return art, nil
}

// Remove deletes all context and cluster entries referencing clusterName.
// Calling Remove on an already-clean kubeconfig is a no-op.
func (s *EKSStore) Remove(ctx context.Context, clusterName string) error {
	art, err := s.matchEntries(ctx, clusterName)
	if err != nil {
		s.logger.Warn("could not enumerate kubeconfig entries for removal", "cluster", clusterName, "error", err)
		return nil
	}

	current, _ := s.entries.CurrentContext(ctx)

	for _, name := range art.Contexts {
		if err := s.entries.DeleteContext(ctx, name); err != nil {
			s.logger.Warn("kubeconfig context removal failed", "context", name, "error", err)
			continue
		}
		if name == current {
			if err := s.entries.UnsetCurrentContext(ctx); err != nil {
				s.logger.Warn("could not unset current kubeconfig context", "error", err)
			}
		}
	}

	for _, name := range art.Clusters {
		if err := s.entries.DeleteCluster(ctx, name); err != nil {
			s.logger.Warn("kubeconfig cluster removal failed", "cluster", name, "error", err)
		}
	}

	if len(art.Contexts) == 0 && len(art.Clusters) == 0 {
		s.logger.Debug("no kubeconfig entries reference cluster", "cluster", clusterName)
	}
	return nil
}

func (s *EKSStore) matchEntries(ctx context.Context, clusterName string) (Artifact, error) {
	contexts, err := s.entries.ListContexts(ctx)
	if err != nil {
		return Artifact{}, err
	}
	clusters, err := s.entries.ListClusters(ctx)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		Contexts: matchClusterEntries(contexts, clusterName),
		Clusters: matchClusterEntries(clusters, clusterName),
	}, nil
}

// matchClusterEntries selects entry names addressing clusterName. EKS entries
// are ARNs of the form arn:aws:eks:REGION:ACCOUNT:cluster/NAME; plain names
// are matched exactly.
func matchClusterEntries(names []string, clusterName string) []string {
	var out []string
	for _, name := range names {
		if name == clusterName || strings.HasSuffix(name, "cluster/"+clusterName) {
			out = append(out, name)
		}
	}
	return out
}
