package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/errs"
)

// newNewCommand creates the "new" subcommand that initialises a project in a new directory.
func newNewCommand(opts *Options) *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new project directory and initialise it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			root := filepath.Join(opts.Dir, name)
			if _, err := os.Stat(root); err == nil {
				return errs.Newf(errs.PreconditionFailed, "%s already exists", root).WithTarget(name)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Creating new project: %s...\n", name)
			if err := os.MkdirAll(root, 0o755); err != nil {
				return fmt.Errorf("create project directory: %w", err)
			}

			flags.name = filepath.Base(name)
			return initProject(out, root, flags.config())
		},
	}

	flags.bind(cmd, false)

	return cmd
}
