package engine

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/afstanton/meshstack/internal/toolcmd"
)

// Line prefixes written to standard output.
const (
	PlanPrefix    = "[plan]"
	DryRunPrefix  = "DRY RUN: would execute:"
	RewritePrefix = "DRY RUN: would rewrite:"
	WarnPrefix    = "warning:"
)

var (
	planColor    = color.New(color.FgCyan, color.Bold)
	dryRunColor  = color.New(color.FgMagenta)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
)

// printer writes user-facing lines. Colour is dropped automatically when the
// output is not a terminal.
type printer struct {
	w io.Writer
}

func (p printer) line(msg string) {
	_, _ = fmt.Fprintln(p.w, msg)
}

func (p printer) success(msg string) {
	_, _ = successColor.Fprintln(p.w, msg)
}

func (p printer) warn(msg string) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", warnColor.Sprint(WarnPrefix), msg)
}

func (p printer) dryRun(inv toolcmd.Invocation) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", dryRunColor.Sprint(DryRunPrefix), inv)
}

func (p printer) dryRunRewrite(paths string) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", dryRunColor.Sprint(RewritePrefix), paths)
}

func (p printer) plan(msg string) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", planColor.Sprint(PlanPrefix), msg)
}
