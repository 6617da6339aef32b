package cli

import (
	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/engine"
)

type bootstrapFlags struct {
	provider string
	name     string
	install  bool
	profile  string
	dryRun   bool
}

func (f *bootstrapFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", engine.DefaultProvider, "Local cluster provisioner (kind, k3d)")
	cmd.Flags().StringVar(&f.name, "name", engine.DefaultClusterName, "Cluster name")
	cmd.Flags().BoolVar(&f.install, "install", false, "Install the default components into the new cluster")
	cmd.Flags().StringVarP(&f.profile, "profile", "p", "", "Resource profile for --install (dev, prod)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the commands instead of running them")
}

func (f *bootstrapFlags) request() engine.BootstrapRequest {
	return engine.BootstrapRequest{Provider: f.provider, Name: f.name, Install: f.install, Profile: f.profile}
}

// newBootstrapCommand creates the "bootstrap" subcommand that provisions a local cluster.
func newBootstrapCommand(opts *Options, preview bool) *cobra.Command {
	var flags bootstrapFlags

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: commandShort(preview, "Create a local cluster and switch to its context", "Preview bootstrap"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return perform(cmd, opts, preview, "", flags.dryRun, flags.request())
		},
	}
	flags.bind(cmd)

	return cmd
}
