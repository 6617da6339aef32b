// Package executor runs external tool invocations and captures their output.
package executor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/afstanton/meshstack/internal/logging"
	"github.com/afstanton/meshstack/internal/toolcmd"
)

// Result holds the outcome of a finished invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports whether the process exited zero.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Executor spawns external tools. Implementations block until the process exits.
type Executor interface {
	// Run executes inv. A non-zero exit is reported through Result, not error;
	// error is reserved for failures to start the process at all.
	Run(ctx context.Context, inv toolcmd.Invocation) (Result, error)
	// LookPath reports whether tool is resolvable on PATH.
	LookPath(tool toolcmd.Tool) error
}

// Process is the real Executor backed by os/exec.
type Process struct {
	// Dir is the working directory for spawned processes; empty means inherit.
	Dir    string
	logger *slog.Logger
}

// New constructs a Process executor rooted at dir.
func New(dir string, logger *slog.Logger) *Process {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	return &Process{Dir: dir, logger: logger}
}

// Run implements Executor.
func (p *Process) Run(ctx context.Context, inv toolcmd.Invocation) (Result, error) {
	cmd := exec.CommandContext(ctx, string(inv.Tool), inv.Args...)
	cmd.Dir = p.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	// stderr is mirrored to the debug log as it arrives.
	cmd.Stderr = io.MultiWriter(&stderr, logging.NewWriter(p.logger, logging.LevelDebug, "tool", inv.Tool))

	p.logger.Debug("running command", "command", inv.String(), "dir", p.Dir)
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			p.logger.Debug("command exited non-zero", "command", inv.String(), "exit_code", res.ExitCode)
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// LookPath implements Executor.
func (p *Process) LookPath(tool toolcmd.Tool) error {
	_, err := exec.LookPath(string(tool))
	return err
}
