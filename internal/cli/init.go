package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/config"
	"github.com/afstanton/meshstack/internal/services"
)

// projectFlags are the config fields settable from the command line.
type projectFlags struct {
	name     string
	language string
	mesh     string
	ci       string
}

func (f *projectFlags) bind(cmd *cobra.Command, withName bool) {
	if withName {
		cmd.Flags().StringVarP(&f.name, "name", "n", "", "Project name (default "+config.DefaultProjectName+")")
	}
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "Application language (rust, go, python, node)")
	cmd.Flags().StringVarP(&f.mesh, "mesh", "m", "", "Service mesh (istio, linkerd)")
	cmd.Flags().StringVarP(&f.ci, "ci", "c", "", "CI/CD system (github, gitlab, argo)")
}

func (f *projectFlags) config() config.ProjectConfig {
	return config.Defaults().WithOverrides(f.name, f.language, f.mesh, f.ci)
}

// newInitCommand creates the "init" subcommand that writes meshstack.yaml and the project layout.
func newInitCommand(opts *Options) *cobra.Command {
	var (
		flags    projectFlags
		fromFile string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create meshstack.yaml and the project directory layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Initializing new meshstack project...")

			cfg := flags.config()
			if fromFile != "" {
				_, _ = fmt.Fprintf(out, "Using config from: %s\n", fromFile)
				loaded, err := config.LoadFile(fromFile)
				if err != nil {
					return err
				}
				cfg = *loaded
			}

			LoggerFromContext(cmd.Context()).Debug("writing project config", "dir", opts.Dir, "project", cfg.ProjectName)
			return initProject(out, opts.Dir, cfg)
		},
	}

	flags.bind(cmd, true)
	cmd.Flags().StringVar(&fromFile, "config", "", "Copy an existing meshstack.yaml instead of using flag values")
	cmd.MarkFlagsMutuallyExclusive("config", "name")

	return cmd
}

// initProject writes cfg under root and creates the services and provision directories.
func initProject(out io.Writer, root string, cfg config.ProjectConfig) error {
	verb := "Created"
	if config.Exists(root) {
		verb = "Updated"
	}
	if err := config.Save(root, cfg); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s %s\n", verb, config.FileName)

	for _, dir := range []string{services.Dir, services.ProvisionDir} {
		path := filepath.Join(root, dir)
		_, err := os.Stat(path)
		if err == nil {
			continue
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", dir, err)
		}
		if err := os.Mkdir(path, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		_, _ = fmt.Fprintf(out, "Created directory: %s\n", dir)
	}
	return nil
}
