// Package scaffold renders the project files meshstack generates: service
// skeletons, CI manifests and profile overlays.
package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/aymanbagabas/go-udiff"

	"github.com/afstanton/meshstack/internal/config"
	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/profile"
	"github.com/afstanton/meshstack/internal/services"
)

// Version is the marker recorded in meshstack.lock for the templates below.
// Bump it whenever generated content changes.
const Version = "1.0.0"

//go:embed templates
var templatesFS embed.FS

// File is a rendered file relative to the project root.
type File struct {
	Path    string
	Content []byte
}

// Data is the template context.
type Data struct {
	Project  config.ProjectConfig
	Service  string
	Profile  string
	Registry string
	Version  string
}

// Generator renders files for one project.
type Generator struct {
	cfg      config.ProjectConfig
	registry string
}

// New constructs a Generator.
func New(cfg config.ProjectConfig, registry string) *Generator {
	if registry == "" {
		registry = config.DefaultRegistry
	}
	return &Generator{cfg: cfg, registry: registry}
}

func (g *Generator) data() Data {
	return Data{Project: g.cfg, Registry: g.registry, Version: Version}
}

// Service renders the skeleton for a new service.
func (g *Generator) Service(name string) ([]File, error) {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, errs.Newf(errs.UnknownTarget, "invalid service name %q", name).WithTarget(name)
	}
	d := g.data()
	d.Service = name

	base := path.Join(services.Dir, name)
	var out []File
	err := fs.WalkDir(templatesFS, "templates/service", func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		rel := strings.TrimSuffix(strings.TrimPrefix(p, "templates/service/"), ".tmpl")
		f, err := renderFile(p, path.Join(base, rel), d)
		if err != nil {
			return err
		}
		out = append(out, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortFiles(out)
	return out, nil
}

// CIPath returns the manifest path for a CI/CD system.
func CIPath(system string) (string, error) {
	switch system {
	case config.CIGitHub:
		return ".github/workflows/meshstack.yaml", nil
	case config.CIGitLab:
		return ".gitlab-ci.yml", nil
	case config.CIArgo:
		return "argocd/application.yaml", nil
	default:
		return "", errs.Newf(errs.UnknownTarget,
			"unknown ci_cd %q; valid values are: %s, %s, %s", system, config.CIGitHub, config.CIGitLab, config.CIArgo).WithTarget(system)
	}
}

// CI renders the manifest for the configured CI/CD system.
func (g *Generator) CI() ([]File, error) {
	dest, err := CIPath(g.cfg.CICD)
	if err != nil {
		return nil, err
	}
	f, err := renderFile("templates/ci/"+g.cfg.CICD+".yaml.tmpl", dest, g.data())
	if err != nil {
		return nil, err
	}
	return []File{f}, nil
}

// Profiles renders one overlay per deploy environment.
func (g *Generator) Profiles() ([]File, error) {
	out := make([]File, 0, len(profile.DeployEnvironments))
	for _, name := range profile.DeployEnvironments {
		d := g.data()
		d.Profile = name
		f, err := renderFile("templates/profiles/values.yaml.tmpl", profile.FileName(name), d)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Managed renders every project-level file whose content is owned by the generator.
func (g *Generator) Managed() ([]File, error) {
	ci, err := g.CI()
	if err != nil {
		return nil, err
	}
	profiles, err := g.Profiles()
	if err != nil {
		return nil, err
	}
	return append(ci, profiles...), nil
}

// Write writes files under root, creating parent directories.
func Write(root string, files []File) error {
	for _, f := range files {
		dest := filepath.Join(root, filepath.FromSlash(f.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", f.Path, err)
		}
		if err := os.WriteFile(dest, f.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return nil
}

// Diff returns a unified diff between the files on disk and their rendered
// content. Files already up to date contribute nothing.
func Diff(root string, files []File) (string, error) {
	parts := make([]string, 0, len(files))
	for _, f := range files {
		current, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("read %s: %w", f.Path, err)
		}
		d := strings.TrimSpace(udiff.Unified(f.Path+" (current)", f.Path+" (generated)", string(current), string(f.Content)))
		if d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func renderFile(src, dest string, d Data) (File, error) {
	raw, err := templatesFS.ReadFile(src)
	if err != nil {
		return File{}, fmt.Errorf("read template %q: %w", src, err)
	}
	content, err := RenderTemplate(src, raw, d)
	if err != nil {
		return File{}, err
	}
	return File{Path: dest, Content: content}, nil
}

// RenderTemplate renders raw with [[ ]] delimiters so chart templates can keep
// their own {{ }} expressions verbatim.
func RenderTemplate(name string, raw []byte, d Data) ([]byte, error) {
	tmpl, err := template.New(name).Delims("[[", "]]").Funcs(funcMap()).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("execute template %q: %w", name, err)
	}
	return buf.Bytes(), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"slug": funcSlug,
	}
}

// funcSlug normalizes a value into a lower-case dash-separated slug.
func funcSlug(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, " ", "-")
	v = strings.ReplaceAll(v, "_", "-")
	return v
}

func sortFiles(files []File) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
}
