// Package state persists the meshstack.lock file that records generated template
// and installed chart versions.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/afstanton/meshstack/internal/errs"
)

// FileName is the lock file at the project root.
const FileName = "meshstack.lock"

// Lock is the recorded state of a project.
type Lock struct {
	// TemplatesVersion is the scaffold marker last written by generate.
	TemplatesVersion string `yaml:"templates_version,omitempty"`
	// Components maps component key to the chart version last applied.
	Components map[string]string `yaml:"components,omitempty"`
}

// Path returns the lock path for a project root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads the lock under root. A missing file yields an empty lock.
func Load(root string) (*Lock, error) {
	raw, err := os.ReadFile(Path(root))
	if errors.Is(err, fs.ErrNotExist) {
		return &Lock{Components: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lock: %w", err)
	}
	var l Lock
	if err := yaml.Unmarshal(raw, &l); err != nil {
		return nil, errs.Wrap(errs.ConfigInvalid, err, "parse "+FileName)
	}
	if l.Components == nil {
		l.Components = map[string]string{}
	}
	return &l, nil
}

// Save writes l under root.
func Save(root string, l *Lock) error {
	raw, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode lock: %w", err)
	}
	if err := os.WriteFile(Path(root), raw, 0o644); err != nil {
		return fmt.Errorf("write lock: %w", err)
	}
	return nil
}

// SetComponent records version for a component.
func (l *Lock) SetComponent(name, version string) {
	if l.Components == nil {
		l.Components = map[string]string{}
	}
	l.Components[name] = version
}

// ComponentNames returns recorded component keys in sorted order.
func (l *Lock) ComponentNames() []string {
	names := make([]string, 0, len(l.Components))
	for k := range l.Components {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Update loads the lock, applies fn and saves the result.
func Update(root string, fn func(*Lock)) error {
	l, err := Load(root)
	if err != nil {
		return err
	}
	fn(l)
	return Save(root, l)
}
