// Package kube provides low-level integration with Kubernetes via kubectl.
package kube

import (
	"context"
	"fmt"
	"strings"

	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/executor"
	"github.com/afstanton/meshstack/internal/toolcmd"
)

// Client wraps kubectl execution with optional context selection.
type Client struct {
	Context string
	exec    executor.Executor
}

// NewClient constructs a new Kubernetes client wrapper.
func NewClient(exec executor.Executor, kubeContext string) *Client {
	return &Client{
		Context: kubeContext,
		exec:    exec,
	}
}

// ClusterInfo checks connectivity to the selected cluster and returns kubectl's summary.
func (c *Client) ClusterInfo(ctx context.Context) (string, error) {
	res, err := c.run(ctx, toolcmd.KubectlClusterInfo(c.Context))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Stdout), nil
}

func (c *Client) run(ctx context.Context, inv toolcmd.Invocation) (executor.Result, error) {
	if err := executor.Require(c.exec, inv.Tool); err != nil {
		return executor.Result{}, err
	}
	res, err := c.exec.Run(ctx, inv)
	if err != nil {
		return res, fmt.Errorf("%s: %w", inv, err)
	}
	if !res.Success() {
		return res, errs.Newf(errs.ToolInvocationFailed,
			"failed to connect to Kubernetes cluster: %s\n%s", res.Stdout, res.Stderr).WithTarget(c.Context)
	}
	return res, nil
}
