package cli

import (
	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/engine"
)

type statusFlags struct {
	components bool
	services   bool
	lockfile   bool
	context    string
}

func (f *statusFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.components, "components", false, "Show installed infrastructure and versions")
	cmd.Flags().BoolVar(&f.services, "services", false, "Show deployed services")
	cmd.Flags().BoolVar(&f.lockfile, "lockfile", false, "Compare installed charts with meshstack.lock")
	cmd.Flags().StringVar(&f.context, "context", "", "Kubernetes context to inspect")
}

func (f *statusFlags) request() engine.StatusRequest {
	return engine.StatusRequest{Components: f.components, Services: f.services, Lockfile: f.lockfile}
}

// newStatusCommand creates the "status" subcommand reporting meshstack-managed releases.
func newStatusCommand(opts *Options, preview bool) *cobra.Command {
	var flags statusFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: commandShort(preview, "Show meshstack-managed releases and recorded versions", "Preview status queries"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return perform(cmd, opts, preview, flags.context, false, flags.request())
		},
	}
	flags.bind(cmd)

	return cmd
}
