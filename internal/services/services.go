// Package services discovers application services on disk.
package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/afstanton/meshstack/internal/errs"
)

// Layout names.
const (
	Dir            = "services"
	Dockerfile     = "Dockerfile"
	ChartFile      = "Chart.yaml"
	ReleasePrefix  = "meshstack-"
	ProvisionDir   = "provision"
	ValuesFileName = "values.yaml"
)

// Service is a directory under the services root.
type Service struct {
	Name string
	// Path is relative to the project root, e.g. services/api.
	Path string
	root string
}

// Release returns the release name used for the service.
func (s Service) Release() string {
	return ReleasePrefix + s.Name
}

// Buildable reports whether the service has a Dockerfile.
func (s Service) Buildable() bool {
	return fileExists(filepath.Join(s.root, s.Path, Dockerfile))
}

// Deployable reports whether the service has a Chart.yaml.
func (s Service) Deployable() bool {
	return fileExists(filepath.Join(s.root, s.Path, ChartFile))
}

// Root returns the services root for a project.
func Root(projectRoot string) string {
	return filepath.Join(projectRoot, Dir)
}

// List returns service names under the project's services root in sorted order.
// A missing root is a precondition failure; an empty root yields no services.
func List(projectRoot string) ([]string, error) {
	entries, err := os.ReadDir(Root(projectRoot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.New(errs.PreconditionFailed,
			"services directory not found; run `meshstack init` first").WithTarget(Dir)
	}
	if err != nil {
		return nil, fmt.Errorf("read services directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Discover returns every service under the project root.
func Discover(projectRoot string) ([]Service, error) {
	names, err := List(projectRoot)
	if err != nil {
		return nil, err
	}
	out := make([]Service, 0, len(names))
	for _, n := range names {
		out = append(out, newService(projectRoot, n))
	}
	return out, nil
}

// Lookup resolves a single named service.
func Lookup(projectRoot, name string) (Service, error) {
	names, err := List(projectRoot)
	if err != nil {
		return Service{}, err
	}
	for _, n := range names {
		if n == name {
			return newService(projectRoot, n), nil
		}
	}
	return Service{}, errs.Newf(errs.UnknownTarget, "unknown service %q; no such directory under %s/", name, Dir).WithTarget(name)
}

func newService(root, name string) Service {
	return Service{Name: name, Path: filepath.Join(Dir, name), root: root}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
