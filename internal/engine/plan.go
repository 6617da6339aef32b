package engine

import (
	"strings"

	"github.com/google/uuid"

	"github.com/afstanton/meshstack/internal/executor"
	"github.com/afstanton/meshstack/internal/scaffold"
	"github.com/afstanton/meshstack/internal/toolcmd"
)

// StepKind tags a plan step.
type StepKind string

const (
	StepBuild      StepKind = "build"
	StepPush       StepKind = "push"
	StepInstall    StepKind = "install"
	StepUpgrade    StepKind = "upgrade"
	StepUninstall  StepKind = "uninstall"
	StepQuery      StepKind = "query"
	StepProvision  StepKind = "provision"
	StepUseContext StepKind = "use-context"
	StepNotice     StepKind = "notice"
	StepWarning    StepKind = "warning"

	// Version queries feed the reconcile step that follows them.
	StepInstalledVersion StepKind = "installed-version"
	StepAvailableVersion StepKind = "available-version"
	StepReconcile        StepKind = "reconcile"
	StepRewrite          StepKind = "rewrite"
)

// Step is one planned action. Notice, warning and reconcile steps carry only
// Message; rewrite steps carry Files; every other kind carries an Invocation.
type Step struct {
	Kind       StepKind
	Target     string
	Invocation toolcmd.Invocation
	// Message is the notice text, or the line printed after a tool step succeeds.
	Message string
	// Mutating marks steps that change cluster, registry, kubeconfig or project
	// state. A gated plan skips them.
	Mutating bool
	// Probe, when set, runs first; if Exists reports true the step is skipped.
	Probe  *toolcmd.Invocation
	Exists func(executor.Result) bool
	// Report renders a query result for display.
	Report func(executor.Result) string
	// Files are the managed files a rewrite step writes.
	Files []scaffold.File
}

// IsTool reports whether the step spawns an external tool.
func (s Step) IsTool() bool {
	switch s.Kind {
	case StepNotice, StepWarning, StepReconcile, StepRewrite:
		return false
	}
	return true
}

// paths joins the paths of a rewrite step's files.
func (s Step) paths() string {
	paths := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		paths = append(paths, f.Path)
	}
	return strings.Join(paths, ", ")
}

// Plan is the resolved, ordered set of steps for one operation.
type Plan struct {
	// ID correlates log lines for one invocation.
	ID        string
	Operation Operation
	// Targets lists the resolved components or releases in processing order.
	Targets []string
	Steps   []Step
	// Gated is set when mutating steps must not run because confirmation is missing.
	Gated bool
}

func newPlan(op Operation) *Plan {
	return &Plan{ID: uuid.NewString(), Operation: op}
}

func (p *Plan) add(s Step) {
	p.Steps = append(p.Steps, s)
}

func (p *Plan) notice(msg string) {
	p.add(Step{Kind: StepNotice, Message: msg})
}

func (p *Plan) warn(msg string) {
	p.add(Step{Kind: StepWarning, Message: msg})
}

// Invocations returns every tool invocation in step order, probes included.
func (p *Plan) Invocations() []toolcmd.Invocation {
	var out []toolcmd.Invocation
	for _, s := range p.Steps {
		if s.Probe != nil {
			out = append(out, *s.Probe)
		}
		if s.IsTool() {
			out = append(out, s.Invocation)
		}
	}
	return out
}
