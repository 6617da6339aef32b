package cli

import (
	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/engine"
)

// newValidateCommand creates the "validate" subcommand for config, service, CI and cluster checks.
func newValidateCommand(opts *Options) *cobra.Command {
	var (
		req         engine.ValidateRequest
		kubeContext string
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate config, services, CI manifests and cluster connectivity",
		Long:  "Validate runs the selected checks in order: config, services, CI, cluster. With no selection every check runs.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())
			env := opts.newEnv(logger, kubeContext, false)
			orch := engine.NewOrchestrator(env, opts.executor(logger), cmd.OutOrStdout(), logger)
			return orch.Validate(cmd.Context(), req)
		},
	}

	cmd.Flags().BoolVar(&req.Config, "config", false, "Validate meshstack.yaml")
	cmd.Flags().BoolVar(&req.Cluster, "cluster", false, "Check connectivity to the Kubernetes context")
	cmd.Flags().BoolVar(&req.CI, "ci", false, "Validate the generated CI/CD manifest")
	cmd.Flags().BoolVar(&req.Services, "services", false, "Check every service has a Dockerfile and Chart.yaml")
	cmd.Flags().BoolVar(&req.Full, "full", false, "Run every check")
	cmd.Flags().StringVar(&kubeContext, "context", "", "Kubernetes context for --cluster")

	return cmd
}
