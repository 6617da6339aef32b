// Package catalog holds the closed registry of infrastructure components meshstack can install.
package catalog

import (
	"strings"

	"github.com/afstanton/meshstack/internal/errs"
)

// Component pairs a catalog key with the chart coordinate installed for it.
type Component struct {
	// Key is the component name and also its release name.
	Key string
	// Chart is the repository/name coordinate passed to the chart tool.
	Chart string
}

// Release returns the release name used for the component.
func (c Component) Release() string {
	return c.Key
}

// components is ordered; every listing and error message follows this order.
var components = []Component{
	{Key: "istio", Chart: "istio/istio"},
	{Key: "prometheus", Chart: "prometheus-community/prometheus"},
	{Key: "grafana", Chart: "grafana/grafana"},
	{Key: "cert-manager", Chart: "cert-manager/cert-manager"},
	{Key: "nginx-ingress", Chart: "ingress-nginx/ingress-nginx"},
	{Key: "vault", Chart: "hashicorp/vault"},
}

// excludedFromDefaultInstall lists components only installed on explicit request.
var excludedFromDefaultInstall = map[string]struct{}{
	"vault": {},
}

// Keys returns all component keys in catalog order.
func Keys() []string {
	out := make([]string, 0, len(components))
	for _, c := range components {
		out = append(out, c.Key)
	}
	return out
}

// Lookup resolves a component key.
func Lookup(key string) (Component, error) {
	for _, c := range components {
		if c.Key == key {
			return c, nil
		}
	}
	return Component{}, errs.Newf(errs.UnknownTarget,
		"unknown component %q; valid components are: %s", key, strings.Join(Keys(), ", ")).
		WithTarget(key)
}

// DefaultInstallSet returns the components installed when none is named.
func DefaultInstallSet() []Component {
	out := make([]Component, 0, len(components))
	for _, c := range components {
		if _, skip := excludedFromDefaultInstall[c.Key]; skip {
			continue
		}
		out = append(out, c)
	}
	return out
}

// DefaultDestroySet returns every component, used for full teardown and update checks.
func DefaultDestroySet() []Component {
	out := make([]Component, len(components))
	copy(out, components)
	return out
}
