// Package engine resolves operations into plans of external tool invocations and
// either executes them or renders them as a preview.
package engine

import (
	"github.com/afstanton/meshstack/internal/config"
)

// Env is the immutable per-invocation context shared by every step of a plan.
type Env struct {
	root        string
	kubeContext string
	dryRun      bool
	registry    string
	cfg         *config.ProjectConfig
}

// EnvOptions are the inputs to NewEnv.
type EnvOptions struct {
	// Root is the project root; relative paths in plans are resolved against it.
	Root        string
	KubeContext string
	DryRun      bool
	Registry    string
	// Config is nil when the project has no readable meshstack.yaml.
	Config *config.ProjectConfig
}

// NewEnv constructs an Env. The config is copied so later mutation by the caller is not observed.
func NewEnv(opts EnvOptions) Env {
	registry := opts.Registry
	if registry == "" {
		registry = config.DefaultRegistry
	}
	root := opts.Root
	if root == "" {
		root = "."
	}
	var cfg *config.ProjectConfig
	if opts.Config != nil {
		cp := *opts.Config
		cfg = &cp
	}
	return Env{
		root:        root,
		kubeContext: opts.KubeContext,
		dryRun:      opts.DryRun,
		registry:    registry,
		cfg:         cfg,
	}
}

func (e Env) Root() string        { return e.root }
func (e Env) KubeContext() string { return e.kubeContext }
func (e Env) DryRun() bool        { return e.dryRun }
func (e Env) Registry() string    { return e.registry }

// Config returns a copy of the loaded config, or nil.
func (e Env) Config() *config.ProjectConfig {
	if e.cfg == nil {
		return nil
	}
	cp := *e.cfg
	return &cp
}
