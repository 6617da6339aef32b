package cli

import (
	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/engine"
)

type deployFlags struct {
	service string
	env     string
	build   bool
	push    bool
	context string
	dryRun  bool
}

func (f *deployFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.service, "service", "s", "", "Deploy a single service (all services when omitted)")
	cmd.Flags().StringVarP(&f.env, "env", "e", "", "Environment profile (dev, prod, staging)")
	cmd.Flags().BoolVar(&f.build, "build", false, "Build the Docker image before deploying")
	cmd.Flags().BoolVar(&f.push, "push", false, "Push the Docker image to the registry")
	cmd.Flags().StringVar(&f.context, "context", "", "Target Kubernetes context")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Print the commands instead of running them")
}

func (f *deployFlags) request() engine.DeployRequest {
	return engine.DeployRequest{Service: f.service, Environment: f.env, Build: f.build, Push: f.push}
}

// newDeployCommand creates the "deploy" subcommand that builds, pushes and releases services.
func newDeployCommand(opts *Options, preview bool) *cobra.Command {
	var flags deployFlags

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: commandShort(preview, "Deploy services to the current cluster", "Preview deploy"),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return perform(cmd, opts, preview, flags.context, flags.dryRun, flags.request())
		},
	}
	flags.bind(cmd)

	return cmd
}
