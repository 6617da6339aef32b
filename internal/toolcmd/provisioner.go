package toolcmd

import (
	"fmt"
	"strings"

	"github.com/afstanton/meshstack/internal/errs"
)

// Provisioner describes a local cluster tool.
type Provisioner struct {
	Tool Tool
	// ContextPrefix is prepended to the cluster name to form the kubeconfig context.
	ContextPrefix string
	// PortMappings are exposed on the cluster load balancer where the tool supports it.
	PortMappings []string
}

var provisioners = []Provisioner{
	{Tool: Kind, ContextPrefix: "kind-"},
	{Tool: K3d, ContextPrefix: "k3d-", PortMappings: []string{"80:80@loadbalancer", "443:443@loadbalancer"}},
}

// LookupProvisioner resolves a provisioner by tool name.
func LookupProvisioner(name string) (Provisioner, error) {
	names := make([]string, 0, len(provisioners))
	for _, p := range provisioners {
		if string(p.Tool) == name {
			return p, nil
		}
		names = append(names, string(p.Tool))
	}
	return Provisioner{}, errs.Newf(errs.UnknownTarget,
		"unknown cluster provider %q; valid providers are: %s", name, strings.Join(names, ", ")).
		WithTarget(name)
}

// KubeContext returns the kubeconfig context the provisioner registers for a cluster.
func (p Provisioner) KubeContext(cluster string) string {
	return p.ContextPrefix + cluster
}

// CreateCluster builds the tool-specific create command.
func (p Provisioner) CreateCluster(name string) Invocation {
	switch p.Tool {
	case K3d:
		args := []string{"cluster", "create", name}
		for _, m := range p.PortMappings {
			args = append(args, "--port", m)
		}
		return Invocation{Tool: K3d, Args: args}
	default:
		return Invocation{Tool: p.Tool, Args: []string{"create", "cluster", "--name", name}}
	}
}

// ListClusters builds the tool-specific cluster listing command.
func (p Provisioner) ListClusters() Invocation {
	switch p.Tool {
	case K3d:
		return Invocation{Tool: K3d, Args: []string{"cluster", "list", "--output", "json"}}
	default:
		return Invocation{Tool: p.Tool, Args: []string{"get", "clusters"}}
	}
}

// String implements fmt.Stringer.
func (p Provisioner) String() string {
	return fmt.Sprintf("%s provisioner", p.Tool)
}
