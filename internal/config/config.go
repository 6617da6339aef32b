// Package config contains the loader and strongly typed model for meshstack.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/afstanton/meshstack/internal/errs"
)

// FileName is the project configuration file at the project root.
const FileName = "meshstack.yaml"

// Defaults applied by init when a field is not given.
const (
	DefaultProjectName = "my-app"
	DefaultLanguage    = "rust"
	DefaultServiceMesh = "istio"
	DefaultCICD        = "github"
)

// CI/CD systems with scaffold support.
const (
	CIGitHub = "github"
	CIGitLab = "gitlab"
	CIArgo   = "argo"
)

// ProjectConfig is the declarative description of a meshstack project.
type ProjectConfig struct {
	// ProjectName names the project; it is used in generated manifests.
	ProjectName string `yaml:"project_name" validate:"required"`
	// Language is the application language (rust, go, python, node).
	Language string `yaml:"language" validate:"required"`
	// ServiceMesh selects the mesh, e.g. istio or linkerd.
	ServiceMesh string `yaml:"service_mesh" validate:"required"`
	// CICD selects the CI/CD system (github, gitlab, argo).
	CICD string `yaml:"ci_cd" validate:"required"`
}

// Defaults returns a config populated with init defaults.
func Defaults() ProjectConfig {
	return ProjectConfig{
		ProjectName: DefaultProjectName,
		Language:    DefaultLanguage,
		ServiceMesh: DefaultServiceMesh,
		CICD:        DefaultCICD,
	}
}

// WithOverrides returns a copy of c with every non-empty argument replacing its field.
func (c ProjectConfig) WithOverrides(name, language, mesh, ci string) ProjectConfig {
	if strings.TrimSpace(name) != "" {
		c.ProjectName = name
	}
	if strings.TrimSpace(language) != "" {
		c.Language = language
	}
	if strings.TrimSpace(mesh) != "" {
		c.ServiceMesh = mesh
	}
	if strings.TrimSpace(ci) != "" {
		c.CICD = ci
	}
	return c
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every field is present and non-empty.
func (c *ProjectConfig) Validate() error {
	if c == nil {
		return errs.New(errs.ConfigInvalid, "config is nil")
	}
	trimmed := ProjectConfig{
		ProjectName: strings.TrimSpace(c.ProjectName),
		Language:    strings.TrimSpace(c.Language),
		ServiceMesh: strings.TrimSpace(c.ServiceMesh),
		CICD:        strings.TrimSpace(c.CICD),
	}
	if err := validate.Struct(trimmed); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			missing := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				missing = append(missing, yamlKey(fe.StructField()))
			}
			return errs.Newf(errs.ConfigInvalid, "%s: missing required fields: %s", FileName, strings.Join(missing, ", "))
		}
		return errs.Wrap(errs.ConfigInvalid, err, "validate "+FileName)
	}
	return nil
}

func yamlKey(field string) string {
	switch field {
	case "ProjectName":
		return "project_name"
	case "Language":
		return "language"
	case "ServiceMesh":
		return "service_mesh"
	case "CICD":
		return "ci_cd"
	default:
		return field
	}
}

// Path returns the config file path for a project root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Exists reports whether root holds a config file.
func Exists(root string) bool {
	_, err := os.Stat(Path(root))
	return err == nil
}

// Load reads and validates the project config under root.
func Load(root string) (*ProjectConfig, error) {
	return LoadFile(Path(root))
}

// LoadFile reads and validates a config file at an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Newf(errs.ConfigMissing, "%s not found; run `meshstack init` first", path).WithTarget(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes and validates raw config bytes.
func Parse(raw []byte) (*ProjectConfig, error) {
	var cfg ProjectConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errs.Wrap(errs.ConfigInvalid, err, "parse "+FileName)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save validates cfg and writes it to root.
func Save(root string, cfg ProjectConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	raw, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(Path(root), raw, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
