package cli

import (
	"log/slog"

	"github.com/afstanton/meshstack/internal/config"
	"github.com/afstanton/meshstack/internal/engine"
	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/executor"
)

// loadProjectConfig returns the project config, or nil when meshstack.yaml is
// absent or unreadable. Operations that need it report ConfigMissing themselves.
func loadProjectConfig(root string, logger *slog.Logger) *config.ProjectConfig {
	cfg, err := config.Load(root)
	switch {
	case err == nil:
		return cfg
	case errs.IsKind(err, errs.ConfigMissing):
		logger.Debug("no project config", "dir", root)
	default:
		logger.Warn("ignoring unreadable project config", "error", err)
	}
	return nil
}

// newEnv builds the immutable per-invocation context.
func (o *Options) newEnv(logger *slog.Logger, kubeContext string, dryRun bool) engine.Env {
	return engine.NewEnv(engine.EnvOptions{
		Root:        o.Dir,
		KubeContext: o.kubeContext(kubeContext),
		DryRun:      dryRun,
		Registry:    o.registry(),
		Config:      loadProjectConfig(o.Dir, logger),
	})
}

// executor returns the injected executor or a real process runner rooted at the project.
func (o *Options) executor(logger *slog.Logger) executor.Executor {
	if o.exec != nil {
		return o.exec
	}
	return executor.New(o.Dir, logger)
}
