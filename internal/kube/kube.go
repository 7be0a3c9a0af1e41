// Package kube provides low-level integration with Kubernetes via kubectl.
package kube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Client wraps kubectl execution with optional kubeconfig and context selection.
type Client struct {
	Kubeconfig string
	Context    string
}

// NewClient constructs a new Kubernetes client wrapper.
func NewClient(kubeconfig, context string) *Client {
	return &Client{
		Kubeconfig: kubeconfig,
		Context:    context,
	}
}

// ListIngresses returns the names of ingress objects in the namespace.
func (c *Client) ListIngresses(ctx context.Context, namespace string) ([]string, error) {
	args := []string{"get", "ingress", "-o", "json"}
	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	out, err := c.RunAndCapture(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingresses in %q: %w", namespace, err)
	}
	return parseNameList(out)
}

// DeleteAllIngresses deletes every ingress in the namespace. An empty selector
// is a no-op for kubectl, not an error.
func (c *Client) DeleteAllIngresses(ctx context.Context, namespace string) error {
	args := []string{"delete", "ingress", "--all", "--ignore-not-found"}
	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	return c.run(ctx, args...)
}

// ClusterInfo checks connectivity to the current cluster.
func (c *Client) ClusterInfo(ctx context.Context) error {
	return c.run(ctx, "cluster-info")
}

// ListContexts returns all context names from the local kubeconfig.
func (c *Client) ListContexts(ctx context.Context) ([]string, error) {
	out, err := c.RunAndCapture(ctx, "config", "get-contexts", "-o", "name")
	if err != nil {
		return nil, fmt.Errorf("list kubeconfig contexts: %w", err)
	}
	return splitLines(out), nil
}

// ListClusters returns all cluster entry names from the local kubeconfig.
func (c *Client) ListClusters(ctx context.Context) ([]string, error) {
	out, err := c.RunAndCapture(ctx, "config", "get-clusters")
	if err != nil {
		return nil, fmt.Errorf("list kubeconfig clusters: %w", err)
	}
	names := splitLines(out)
	// kubectl prints a NAME header before the entries.
	if len(names) > 0 && names[0] == "NAME" {
		names = names[1:]
	}
	return names, nil
}

// CurrentContext returns the current kubeconfig context, or "" when unset.
func (c *Client) CurrentContext(ctx context.Context) (string, error) {
	out, err := c.RunAndCapture(ctx, "config", "current-context")
	if err != nil {
		// kubectl fails when no current context is set.
		return "", nil
	}
	return strings.TrimSpace(string(out)), nil
}

// DeleteContext removes a named context entry from the local kubeconfig.
func (c *Client) DeleteContext(ctx context.Context, name string) error {
	if err := c.run(ctx, "config", "delete-context", name); err != nil {
		return fmt.Errorf("delete kubeconfig context %q: %w", name, err)
	}
	return nil
}

// DeleteCluster removes a named cluster entry from the local kubeconfig.
func (c *Client) DeleteCluster(ctx context.Context, name string) error {
	if err := c.run(ctx, "config", "delete-cluster", name); err != nil {
		return fmt.Errorf("delete kubeconfig cluster %q: %w", name, err)
	}
	return nil
}

// UnsetCurrentContext clears the current-context pointer.
func (c *Client) UnsetCurrentContext(ctx context.Context) error {
	if err := c.run(ctx, "config", "unset", "current-context"); err != nil {
		return fmt.Errorf("unset current kubeconfig context: %w", err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, args ...string) error {
	cmd := c.command(ctx, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("kubectl %v failed: %w", args, err)
	}
	return nil
}

// RunAndCapture executes kubectl and returns its stdout.
func (c *Client) RunAndCapture(ctx context.Context, args ...string) ([]byte, error) {
	cmd := c.command(ctx, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("kubectl %v failed: %w", args, err)
	}
	return stdout.Bytes(), nil
}

func (c *Client) command(ctx context.Context, args ...string) *exec.Cmd {
	cmdArgs := make([]string, 0, len(args)+2)
	if c.Context != "" {
		cmdArgs = append(cmdArgs, "--context", c.Context)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.CommandContext(ctx, "kubectl", cmdArgs...)
	if c.Kubeconfig != "" {
		cmd.Env = append(os.Environ(), "KUBECONFIG="+c.Kubeconfig)
	}
	return cmd
}

// objectList is the subset of a kubectl JSON list needed to extract names.
type objectList struct {
	Items []struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
	} `json:"items"`
}

func parseNameList(raw []byte) ([]string, error) {
	var list objectList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode kubectl object list: %w", err)
	}
	names := make([]string, 0, len(list.Items))
	for _, item := range list.Items {
		if item.Metadata.Name != "" {
			names = append(names, item.Metadata.Name)
		}
	}
	return names, nil
}

func splitLines(raw []byte) []string {
	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
