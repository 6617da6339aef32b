package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/config"
	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/scaffold"
	"github.com/afstanton/meshstack/internal/services"
	"github.com/afstanton/meshstack/internal/state"
)

// newGenerateCommand creates the "generate" group for scaffolding project files.
func newGenerateCommand(opts *Options) *cobra.Command {
	return newGroupCommand("generate", "Generate service, CI and profile files from templates",
		newGenerateServiceCommand(opts),
		newGenerateCICommand(opts),
		newGenerateProfilesCommand(opts),
	)
}

func newGenerateServiceCommand(opts *Options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "service <name>",
		Short: "Generate a Dockerfile and Helm chart under services/<name>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, err := os.Stat(filepath.Join(services.Root(opts.Dir), name)); err == nil && !force {
				return errs.Newf(errs.PreconditionFailed, "service %s already exists; pass --force to overwrite", name).WithTarget(name)
			}
			return generate(cmd, opts, func(g *scaffold.Generator) ([]scaffold.File, error) {
				return g.Service(name)
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing service")

	return cmd
}

func newGenerateCICommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ci",
		Short: "Generate the CI/CD manifest for the configured ci_cd system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(cmd, opts, (*scaffold.Generator).CI)
		},
	}
}

func newGenerateProfilesCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "Generate dev, prod and staging values overlays",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return generate(cmd, opts, (*scaffold.Generator).Profiles)
		},
	}
}

// generate renders files, writes them under the project root and records the
// templates version in meshstack.lock.
func generate(cmd *cobra.Command, opts *Options, render func(*scaffold.Generator) ([]scaffold.File, error)) error {
	logger := LoggerFromContext(cmd.Context())

	cfg, err := config.Load(opts.Dir)
	if err != nil {
		return err
	}
	files, err := render(scaffold.New(*cfg, opts.registry()))
	if err != nil {
		return err
	}
	if err := scaffold.Write(opts.Dir, files); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, f := range files {
		_, _ = fmt.Fprintf(out, "Created %s\n", f.Path)
	}

	if err := state.Update(opts.Dir, func(l *state.Lock) { l.TemplatesVersion = scaffold.Version }); err != nil {
		return err
	}
	logger.Debug("recorded templates version", "version", scaffold.Version, "files", len(files))
	return nil
}
