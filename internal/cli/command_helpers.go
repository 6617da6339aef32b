package cli

import (
	"github.com/spf13/cobra"

	"github.com/afstanton/meshstack/internal/engine"
	"github.com/afstanton/meshstack/internal/ghoutput"
)

// newGroupCommand builds a cobra.Command that groups subcommands.
func newGroupCommand(use, short string, subcommands ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}
	if len(subcommands) > 0 {
		cmd.AddCommand(subcommands...)
	}
	return cmd
}

// perform executes req, or renders it with the plan prefix when preview is set.
// Both paths resolve the request identically.
func perform(cmd *cobra.Command, opts *Options, preview bool, kubeContext string, dryRun bool, req engine.Request) error {
	logger := LoggerFromContext(cmd.Context())
	env := opts.newEnv(logger, kubeContext, dryRun)
	if preview {
		_, err := engine.NewPlanner(env, cmd.OutOrStdout(), logger).Preview(req)
		return err
	}
	plan, err := engine.NewOrchestrator(env, opts.executor(logger), cmd.OutOrStdout(), logger).Execute(cmd.Context(), req)
	if err != nil || dryRun || plan.Gated {
		return err
	}
	return ghoutput.Write(opts.Settings.GitHubOutput, ghoutput.PlanOutputs(string(plan.Operation), plan.Targets, plan.ID))
}

// commandShort picks the short description for the execute or preview flavour of a command.
func commandShort(preview bool, run, plan string) string {
	if preview {
		return plan
	}
	return run
}
