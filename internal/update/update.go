// Package update compares installed chart and template versions with what is available.
package update

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/afstanton/meshstack/internal/catalog"
	"github.com/afstanton/meshstack/internal/executor"
	"github.com/afstanton/meshstack/internal/toolcmd"
)

// Kind distinguishes what an Info describes.
type Kind string

const (
	KindChart    Kind = "chart"
	KindTemplate Kind = "template"
)

// Delta classifies the change between two versions.
type Delta string

const (
	DeltaMajor      Delta = "major"
	DeltaMinor      Delta = "minor"
	DeltaPatch      Delta = "patch"
	DeltaPrerelease Delta = "prerelease"
	DeltaDowngrade  Delta = "downgrade"
	DeltaUnknown    Delta = "unknown"
)

// Info describes one available update.
type Info struct {
	Name    string
	Current string
	Latest  string
	Kind    Kind
	Delta   Delta
}

// Applicable reports whether applying the update moves forward.
func (i *Info) Applicable() bool {
	return i != nil && i.Delta != DeltaDowngrade
}

// Checker reads chart versions from the output of the helm queries built by
// InstalledQuery and AvailableQuery. The caller runs the queries.
type Checker interface {
	// Installed returns the installed chart version, or "" when the release is absent.
	Installed(component catalog.Component, res executor.Result) (string, error)
	// Available returns the newest chart version in the repository, or "".
	Available(component catalog.Component, res executor.Result) (string, error)
}

// InstalledQuery lists the component's release.
func InstalledQuery(component catalog.Component, kubeContext string) toolcmd.Invocation {
	return toolcmd.HelmList(ListFilter(component), kubeContext)
}

// AvailableQuery searches the chart repository for the component's chart.
func AvailableQuery(component catalog.Component) toolcmd.Invocation {
	return toolcmd.HelmSearchRepo(component.Chart)
}

// ListFilter returns the exact-match release filter used for a component.
func ListFilter(component catalog.Component) string {
	return "^" + component.Release() + "$"
}

// Compare returns a chart Info when latest differs from current. An unknown
// latest version is not an update.
func Compare(name, current, latest string) *Info {
	if current == "" || latest == "" || latest == current {
		return nil
	}
	return &Info{
		Name:    name,
		Current: current,
		Latest:  latest,
		Kind:    KindChart,
		Delta:   Classify(current, latest),
	}
}

// Classify returns the delta from current to latest. Versions that do not parse
// as semver classify as unknown.
func Classify(current, latest string) Delta {
	cur, err := semver.NewVersion(strings.TrimSpace(current))
	if err != nil {
		return DeltaUnknown
	}
	lat, err := semver.NewVersion(strings.TrimSpace(latest))
	if err != nil {
		return DeltaUnknown
	}
	switch {
	case lat.LessThan(cur):
		return DeltaDowngrade
	case lat.Major() != cur.Major():
		return DeltaMajor
	case lat.Minor() != cur.Minor():
		return DeltaMinor
	case lat.Patch() != cur.Patch():
		return DeltaPatch
	case lat.Prerelease() != cur.Prerelease():
		return DeltaPrerelease
	default:
		return DeltaUnknown
	}
}

// CheckTemplates compares the templates marker recorded in the lock with the
// current one. Nothing recorded means nothing to compare.
func CheckTemplates(recorded, current string) *Info {
	if recorded == "" || recorded == current {
		return nil
	}
	return &Info{
		Name:    "templates",
		Current: recorded,
		Latest:  current,
		Kind:    KindTemplate,
		Delta:   Classify(recorded, current),
	}
}
