// Package profile maps profile and environment names to values-overlay files.
package profile

import (
	"strings"

	"github.com/afstanton/meshstack/internal/errs"
)

// Custom is reserved and always rejected.
const Custom = "custom"

// Set is an ordered list of accepted profile names.
type Set []string

var (
	// InstallProfiles are accepted by install and bootstrap.
	InstallProfiles = Set{"dev", "prod"}
	// DeployEnvironments are accepted by deploy.
	DeployEnvironments = Set{"dev", "prod", "staging"}
)

// Contains reports whether name is in the set.
func (s Set) Contains(name string) bool {
	for _, n := range s {
		if n == name {
			return true
		}
	}
	return false
}

// ValuesFile is the overlay file a profile resolves to, relative to the project root.
// The zero value means no overlay.
type ValuesFile string

// FileName returns the conventional overlay file name for a profile.
func FileName(name string) string {
	return name + "-values.yaml"
}

// Resolve maps name to its overlay file. An empty name resolves to no overlay.
// Whether the file exists is left to the caller.
func Resolve(name string, allowed Set) (ValuesFile, error) {
	if name == "" {
		return "", nil
	}
	if name == Custom {
		return "", errs.New(errs.NotImplemented, "custom profile not yet implemented").WithTarget(name)
	}
	if !allowed.Contains(name) {
		return "", errs.Newf(errs.UnknownTarget,
			"unknown profile %q; valid profiles are: %s", name, strings.Join(allowed, ", ")).
			WithTarget(name)
	}
	return ValuesFile(FileName(name)), nil
}
