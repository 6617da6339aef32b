package config

import (
	envparse "github.com/caarlos0/env/v11"

	"github.com/afstanton/meshstack/internal/env"
)

// DefaultRegistry prefixes image references when MESHSTACK_REGISTRY is unset.
const DefaultRegistry = "meshstack"

// Settings holds process-level defaults sourced from MESHSTACK_* variables.
type Settings struct {
	// Registry is the image registry prefix from MESHSTACK_REGISTRY.
	Registry string `env:"MESHSTACK_REGISTRY" envDefault:"meshstack"`
	// LogLevel is the logging level from MESHSTACK_LOG_LEVEL.
	LogLevel string `env:"MESHSTACK_LOG_LEVEL" envDefault:"info"`
	// KubeContext is the default cluster context from MESHSTACK_KUBE_CONTEXT.
	KubeContext string `env:"MESHSTACK_KUBE_CONTEXT"`
	// GitHubOutput is the Actions step output file; results are published there when set.
	GitHubOutput string `env:"GITHUB_OUTPUT"`
}

// LoadSettings reads Settings from the process environment layered over root/.env.
func LoadSettings(root string) (Settings, error) {
	vars, err := env.Resolve(root)
	if err != nil {
		return Settings{}, err
	}
	return ParseSettings(vars)
}

// ParseSettings reads Settings from an explicit variable set.
func ParseSettings(vars env.Vars) (Settings, error) {
	var s Settings
	if err := envparse.ParseWithOptions(&s, envparse.Options{Environment: vars}); err != nil {
		return Settings{}, err
	}
	if s.Registry == "" {
		s.Registry = DefaultRegistry
	}
	return s, nil
}
