package cli

import "strings"

// kubeContext returns the --context flag value, falling back to MESHSTACK_KUBE_CONTEXT.
func (o *Options) kubeContext(flag string) string {
	if v := strings.TrimSpace(flag); v != "" {
		return v
	}
	return strings.TrimSpace(o.Settings.KubeContext)
}

// registry returns the image registry prefix from MESHSTACK_REGISTRY.
func (o *Options) registry() string {
	return strings.TrimSpace(o.Settings.Registry)
}
