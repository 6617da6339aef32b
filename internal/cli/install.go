package cli

import (
	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/engine"
)

// installFlags are shared by "install" and "plan install".
type installFlags struct {
	component string
	profile   string
	context   string
	dryRun    bool
}

func (f *installFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.component, "component", "c", "", "Install a single component (istio, prometheus, grafana, cert-manager, nginx-ingress, vault)")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "Resource profile (dev, prod)")
	cmd.Flags().StringVar(&f.context, "context", "", "Target Kubernetes context")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the helm commands instead of running them")
}

func (f *installFlags) request() engine.InstallRequest {
	return engine.InstallRequest{Component: f.component, Profile: f.profile}
}

// newInstallCommand creates the "install" subcommand that installs infrastructure charts.
func newInstallCommand(opts *Options, preview bool) *cobra.Command {
	var flags installFlags

	cmd := &cobra.Command{
		Use:   "install",
		Short: commandShort(preview, "Install infrastructure components into the current cluster", "Preview install"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return perform(cmd, opts, preview, flags.context, flags.dryRun, flags.request())
		},
	}
	flags.bind(cmd)

	return cmd
}
