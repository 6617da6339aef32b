package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/afstanton/meshstack/internal/catalog"
	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/executor"
	"github.com/afstanton/meshstack/internal/logging"
	"github.com/afstanton/meshstack/internal/scaffold"
	"github.com/afstanton/meshstack/internal/state"
	"github.com/afstanton/meshstack/internal/toolcmd"
	"github.com/afstanton/meshstack/internal/update"
)

// Orchestrator executes plans through an Executor, one step at a time.
// The first failing step aborts the plan; earlier steps are not rolled back.
type Orchestrator struct {
	env     Env
	exec    executor.Executor
	checker update.Checker
	out     printer
	logger  *slog.Logger
	checked map[toolcmd.Tool]struct{}
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithChecker replaces the helm-backed update checker.
func WithChecker(c update.Checker) Option {
	return func(o *Orchestrator) {
		o.checker = c
	}
}

// NewOrchestrator constructs an Orchestrator writing progress to out.
func NewOrchestrator(env Env, exec executor.Executor, out io.Writer, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	o := &Orchestrator{
		env:     env,
		exec:    exec,
		out:     printer{w: out},
		logger:  logger,
		checked: map[toolcmd.Tool]struct{}{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.checker == nil {
		o.checker = update.HelmChecker{}
	}
	return o
}

// Execute resolves req and runs the resulting plan. The plan is returned even
// when a step fails so callers can report what was attempted.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Plan, error) {
	plan, err := Decide(o.env, req)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("plan resolved",
		"plan_id", plan.ID,
		"operation", plan.Operation,
		"targets", plan.Targets,
		"steps", len(plan.Steps),
		"dry_run", o.env.DryRun(),
	)
	if plan.Operation == OpUpdate {
		return plan, o.executeUpdate(ctx, plan)
	}
	return plan, o.run(ctx, plan)
}

func (o *Orchestrator) run(ctx context.Context, plan *Plan) error {
	for _, step := range plan.Steps {
		if plan.Gated && step.Mutating {
			continue
		}
		if err := o.runStep(ctx, step); err != nil {
			o.logger.Debug("plan aborted", "plan_id", plan.ID, "target", step.Target, "error", err)
			return err
		}
	}
	if plan.Gated {
		o.reportGated(plan)
	}
	return nil
}

// reportGated lists what a confirmed run would remove and issues nothing.
func (o *Orchestrator) reportGated(plan *Plan) {
	for _, target := range plan.Targets {
		o.out.line("Would destroy: " + target)
	}
	o.out.warn("destroy not confirmed; re-run with --confirm to proceed. No resources were destroyed.")
}

func (o *Orchestrator) runStep(ctx context.Context, step Step) error {
	switch step.Kind {
	case StepNotice:
		o.out.line(step.Message)
		return nil
	case StepWarning:
		o.out.warn(step.Message)
		return nil
	}

	if step.Probe != nil {
		if o.env.DryRun() {
			o.out.dryRun(*step.Probe)
		} else {
			res, err := o.invoke(ctx, step.Target, *step.Probe)
			if err != nil {
				return err
			}
			if step.Exists != nil && step.Exists(res) {
				o.out.line(fmt.Sprintf("%s already exists; skipping creation.", step.Target))
				return nil
			}
		}
	}

	if o.env.DryRun() {
		o.out.dryRun(step.Invocation)
		return nil
	}
	res, err := o.invoke(ctx, step.Target, step.Invocation)
	if err != nil {
		return err
	}
	switch {
	case step.Report != nil:
		o.out.line(step.Report(res))
	case step.Message != "":
		o.out.success(step.Message)
	}
	return nil
}

func (o *Orchestrator) invoke(ctx context.Context, target string, inv toolcmd.Invocation) (executor.Result, error) {
	if _, ok := o.checked[inv.Tool]; !ok {
		if err := executor.Require(o.exec, inv.Tool); err != nil {
			return executor.Result{}, err
		}
		o.checked[inv.Tool] = struct{}{}
	}
	o.logger.Debug("executing", "command", inv.String(), "target", target)
	res, err := o.exec.Run(ctx, inv)
	if err != nil {
		return res, errs.Wrap(errs.ToolInvocationFailed, err, fmt.Sprintf("%s could not be started", inv)).WithTarget(target)
	}
	if !res.Success() {
		return res, errs.Newf(errs.ToolInvocationFailed, "%s failed for %s (exit %d):\n%s\n%s",
			inv, target, res.ExitCode, res.Stdout, res.Stderr).WithTarget(target)
	}
	return res, nil
}

// versionSweep carries version query results to the reconcile step.
type versionSweep struct {
	lock      *state.Lock
	installed map[string]string
	infos     []*update.Info
}

// executeUpdate interprets an update plan. Version queries are read by the
// checker; nothing is queried, upgraded or rewritten under dry-run.
func (o *Orchestrator) executeUpdate(ctx context.Context, plan *Plan) error {
	lock, err := state.Load(o.env.Root())
	if err != nil {
		return err
	}
	sweep := &versionSweep{lock: lock, installed: map[string]string{}}
	for _, step := range plan.Steps {
		switch step.Kind {
		case StepInstalledVersion, StepAvailableVersion:
			err = o.queryVersion(ctx, sweep, step)
		case StepReconcile:
			err = o.reconcile(ctx, sweep, step)
		case StepRewrite:
			err = o.rewrite(sweep, step)
		default:
			err = o.runStep(ctx, step)
		}
		if err != nil {
			o.logger.Debug("plan aborted", "plan_id", plan.ID, "target", step.Target, "error", err)
			return err
		}
	}
	return nil
}

func (o *Orchestrator) queryVersion(ctx context.Context, sweep *versionSweep, step Step) error {
	if o.env.DryRun() {
		o.out.dryRun(step.Invocation)
		return nil
	}
	c, err := catalog.Lookup(step.Target)
	if err != nil {
		return err
	}

	if step.Kind == StepInstalledVersion {
		res, err := o.invoke(ctx, c.Key, step.Invocation)
		if err != nil {
			return err
		}
		current, err := o.checker.Installed(c, res)
		if err != nil {
			return err
		}
		if current != "" {
			sweep.installed[c.Key] = current
		}
		return nil
	}

	// An uninstalled component is not out of date.
	current, ok := sweep.installed[c.Key]
	if !ok {
		return nil
	}
	res, err := o.invoke(ctx, c.Key, step.Invocation)
	if errs.IsKind(err, errs.ToolUnavailable) {
		return err
	}
	var latest string
	if err == nil {
		latest, err = o.checker.Available(c, res)
	}
	if err != nil {
		o.logger.Warn("could not determine latest chart version", "component", c.Key, "error", err)
		return nil
	}
	if info := update.Compare(c.Key, current, latest); info != nil {
		sweep.infos = append(sweep.infos, info)
	}
	return nil
}

func (o *Orchestrator) reconcile(ctx context.Context, sweep *versionSweep, step Step) error {
	if o.env.DryRun() {
		o.out.line(step.Message + " (versions are not queried under dry-run)")
		return nil
	}
	for _, info := range sweep.infos {
		o.out.line(fmt.Sprintf("%s: %s -> %s (%s)", info.Name, info.Current, info.Latest, info.Delta))
	}
	if len(sweep.infos) == 0 {
		o.out.line("All components are up to date.")
		return nil
	}
	if !step.Mutating {
		o.out.line("Run `meshstack update --apply` to upgrade.")
		return nil
	}

	up, err := decideUpgrades(o.env, sweep.infos)
	if err != nil {
		return err
	}
	latest := make(map[string]string, len(sweep.infos))
	for _, info := range sweep.infos {
		latest[info.Name] = info.Latest
	}
	var runErr error
	for _, s := range up.Steps {
		if runErr = o.runStep(ctx, s); runErr != nil {
			break
		}
		if s.Kind == StepUpgrade {
			sweep.lock.SetComponent(s.Target, latest[s.Target])
		}
	}
	if err := state.Save(o.env.Root(), sweep.lock); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func (o *Orchestrator) rewrite(sweep *versionSweep, step Step) error {
	if o.env.DryRun() {
		o.out.dryRunRewrite(step.paths())
		return nil
	}
	if err := scaffold.Write(o.env.Root(), step.Files); err != nil {
		return err
	}
	sweep.lock.TemplatesVersion = scaffold.Version
	if err := state.Save(o.env.Root(), sweep.lock); err != nil {
		return err
	}
	o.out.success(step.Message)
	return nil
}
