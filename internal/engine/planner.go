package engine

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/afstanton/meshstack/internal/logging"
)

// Planner renders plans without executing them. It has no executor, so a
// preview cannot spawn a process.
type Planner struct {
	env    Env
	out    printer
	logger *slog.Logger
}

// NewPlanner constructs a Planner writing to out.
func NewPlanner(env Env, out io.Writer, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Planner{env: env, out: printer{w: out}, logger: logger}
}

// Preview resolves req and prints every step with the plan prefix.
func (p *Planner) Preview(req Request) (*Plan, error) {
	plan, err := Decide(p.env, req)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("previewing plan", "plan_id", plan.ID, "operation", plan.Operation, "steps", len(plan.Steps))

	p.out.plan(fmt.Sprintf("%s: %d target(s)", plan.Operation, len(plan.Targets)))
	for _, step := range plan.Steps {
		switch {
		case step.Kind == StepNotice, step.Kind == StepReconcile:
			p.out.plan(step.Message)
		case step.Kind == StepRewrite:
			p.out.plan("would rewrite: " + step.paths())
		case step.Kind == StepWarning:
			p.out.plan(WarnPrefix + " " + step.Message)
		case step.Probe != nil:
			p.out.plan(step.Probe.String())
			p.out.plan(fmt.Sprintf("%s (skipped if %s already exists)", step.Invocation, step.Target))
		default:
			p.out.plan(step.Invocation.String())
		}
	}
	if plan.Gated {
		p.out.plan("destroy not confirmed: no uninstall would be issued without --confirm")
	}
	return plan, nil
}
