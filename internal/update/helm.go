package update

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/afstanton/meshstack/internal/catalog"
	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/executor"
)

// chartVersionRe extracts the version suffix of a helm list "chart" field such as istio-1.22.0.
var chartVersionRe = regexp.MustCompile(`-(v?\d+\.\d+\.\d+.*)$`)

// Release is one entry of `helm list --output json`.
type Release struct {
	Name       string `json:"name"`
	Namespace  string `json:"namespace"`
	Chart      string `json:"chart"`
	AppVersion string `json:"app_version"`
	Status     string `json:"status"`
}

// Version returns the chart version encoded in the chart field, or "".
func (r Release) Version() string {
	m := chartVersionRe.FindStringSubmatch(r.Chart)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParseReleases decodes helm list JSON output. Empty output decodes to no releases.
func ParseReleases(out string) ([]Release, error) {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	var releases []Release
	if err := json.Unmarshal([]byte(out), &releases); err != nil {
		return nil, fmt.Errorf("decode helm list output: %w", err)
	}
	return releases, nil
}

// FindRelease returns the release named name from helm list output.
func FindRelease(out, name string) (*Release, error) {
	releases, err := ParseReleases(out)
	if err != nil {
		return nil, err
	}
	for i := range releases {
		if releases[i].Name == name {
			return &releases[i], nil
		}
	}
	return nil, nil
}

type searchEntry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HelmChecker reads versions from helm list and helm search JSON output.
type HelmChecker struct{}

// Installed implements Checker.
func (HelmChecker) Installed(component catalog.Component, res executor.Result) (string, error) {
	rel, err := FindRelease(res.Stdout, component.Release())
	if err != nil {
		return "", errs.Wrap(errs.ToolInvocationFailed, err, "unreadable helm list output").WithTarget(component.Key)
	}
	if rel == nil {
		return "", nil
	}
	return rel.Version(), nil
}

// Available implements Checker.
func (HelmChecker) Available(component catalog.Component, res executor.Result) (string, error) {
	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return "", nil
	}
	var entries []searchEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		return "", fmt.Errorf("decode helm search output: %w", err)
	}
	for _, e := range entries {
		if e.Name == component.Chart {
			return e.Version, nil
		}
	}
	return "", nil
}
