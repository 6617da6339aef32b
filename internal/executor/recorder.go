package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/afstanton/meshstack/internal/toolcmd"
)

// Recorder is an Executor that records invocations instead of spawning them.
// Responses are matched by command-line prefix; unmatched invocations succeed
// with empty output.
type Recorder struct {
	mu        sync.Mutex
	calls     []toolcmd.Invocation
	responses []response
	missing   map[toolcmd.Tool]struct{}
}

type response struct {
	prefix string
	result Result
	err    error
}

// NewRecorder constructs an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{missing: map[toolcmd.Tool]struct{}{}}
}

// Respond registers the result returned for invocations whose String() starts with prefix.
// Later registrations win over earlier ones.
func (r *Recorder) Respond(prefix string, res Result) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, response{prefix: prefix, result: res})
	return r
}

// Fail registers a start failure for invocations whose String() starts with prefix.
func (r *Recorder) Fail(prefix string, err error) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, response{prefix: prefix, err: err})
	return r
}

// Missing marks tools as absent from PATH.
func (r *Recorder) Missing(tools ...toolcmd.Tool) *Recorder {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		r.missing[t] = struct{}{}
	}
	return r
}

// Run implements Executor.
func (r *Recorder) Run(_ context.Context, inv toolcmd.Invocation) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, inv)
	line := inv.String()
	for i := len(r.responses) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, r.responses[i].prefix) {
			return r.responses[i].result, r.responses[i].err
		}
	}
	return Result{}, nil
}

// LookPath implements Executor.
func (r *Recorder) LookPath(tool toolcmd.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.missing[tool]; ok {
		return fmt.Errorf("exec: %q: executable file not found in $PATH", tool)
	}
	return nil
}

// Calls returns a copy of every recorded invocation.
func (r *Recorder) Calls() []toolcmd.Invocation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]toolcmd.Invocation, len(r.calls))
	copy(out, r.calls)
	return out
}

// Lines returns the recorded invocations rendered as command lines.
func (r *Recorder) Lines() []string {
	calls := r.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.String())
	}
	return out
}

// CountPrefix returns how many recorded invocations start with prefix.
func (r *Recorder) CountPrefix(prefix string) int {
	n := 0
	for _, line := range r.Lines() {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}
