package cli

import (
	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/engine"
)

type destroyFlags struct {
	service   string
	component string
	full      bool
	all       bool
	confirm   bool
	context   string
	dryRun    bool
}

func (f *destroyFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.service, "service", "s", "", "Service release to uninstall")
	cmd.Flags().StringVarP(&f.component, "component", "c", "", "Infrastructure component to uninstall")
	cmd.Flags().BoolVar(&f.full, "full", false, "Uninstall every service and component")
	cmd.Flags().BoolVar(&f.all, "all", false, "Alias of --full")
	cmd.Flags().BoolVar(&f.confirm, "confirm", false, "Actually uninstall; without it only the targets are listed")
	cmd.Flags().StringVar(&f.context, "context", "", "Target Kubernetes context")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the helm commands instead of running them")
}

func (f *destroyFlags) request() engine.DestroyRequest {
	return engine.DestroyRequest{
		Service:   f.service,
		Component: f.component,
		Full:      f.full || f.all,
		Confirm:   f.confirm,
	}
}

// newDestroyCommand creates the "destroy" subcommand that uninstalls releases.
func newDestroyCommand(opts *Options, preview bool) *cobra.Command {
	var flags destroyFlags

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: commandShort(preview, "Uninstall services and infrastructure components", "Preview destroy"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return perform(cmd, opts, preview, flags.context, flags.dryRun, flags.request())
		},
	}
	flags.bind(cmd)

	return cmd
}
