package update

import (
	"github.com/afstanton/meshstack/internal/catalog"
	"github.com/afstanton/meshstack/internal/executor"
)

// StubChecker returns fixed versions and ignores query output. Components
// absent from Current are treated as not installed.
type StubChecker struct {
	Current map[string]string
	Latest  map[string]string
}

// Installed implements Checker.
func (s StubChecker) Installed(component catalog.Component, _ executor.Result) (string, error) {
	return s.Current[component.Key], nil
}

// Available implements Checker.
func (s StubChecker) Available(component catalog.Component, _ executor.Result) (string, error) {
	return s.Latest[component.Key], nil
}
