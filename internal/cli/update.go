package cli

import (
	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/engine"
)

type updateFlags struct {
	check     bool
	apply     bool
	component string
	template  bool
	infra     bool
	context   string
	dryRun    bool
}

func (f *updateFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.check, "check", false, "Show available updates without applying them")
	cmd.Flags().BoolVar(&f.apply, "apply", false, "Apply available updates")
	cmd.Flags().StringVarP(&f.component, "component", "c", "", "Limit chart updates to one component")
	cmd.Flags().BoolVar(&f.template, "template", false, "Update generated project files")
	cmd.Flags().BoolVar(&f.infra, "infra", false, "Update infrastructure charts")
	cmd.Flags().StringVar(&f.context, "context", "", "Target Kubernetes context")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print upgrade commands instead of running them")
	cmd.MarkFlagsMutuallyExclusive("check", "apply")
}

func (f *updateFlags) request() engine.UpdateRequest {
	return engine.UpdateRequest{
		Component: f.component,
		Infra:     f.infra,
		Template:  f.template,
		Check:     f.check,
		Apply:     f.apply,
	}
}

// newUpdateCommand creates the "update" subcommand for chart and template updates.
func newUpdateCommand(opts *Options, preview bool) *cobra.Command {
	var flags updateFlags

	cmd := &cobra.Command{
		Use:   "update",
		Short: commandShort(preview, "Check for or apply chart and template updates", "Preview update queries"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return perform(cmd, opts, preview, flags.context, flags.dryRun, flags.request())
		},
	}
	flags.bind(cmd)

	return cmd
}
