package cli

import "github.com/spf13/cobra"

// newPlanCommand creates the "plan" group. Each subcommand accepts the same flags as
// its executing counterpart and prints the resolved commands without running any.
func newPlanCommand(opts *Options) *cobra.Command {
	return newGroupCommand("plan", "Preview the commands an operation would run",
		newInstallCommand(opts, true),
		newDeployCommand(opts, true),
		newDestroyCommand(opts, true),
		newStatusCommand(opts, true),
		newBootstrapCommand(opts, true),
		newUpdateCommand(opts, true),
	)
}
