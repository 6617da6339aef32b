package executor

import (
	"fmt"

	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/toolcmd"
)

var installHints = map[toolcmd.Tool]string{
	toolcmd.Helm:    "https://helm.sh/docs/intro/install/",
	toolcmd.Docker:  "https://docs.docker.com/get-docker/",
	toolcmd.Kubectl: "https://kubernetes.io/docs/tasks/tools/",
	toolcmd.Kind:    "https://kind.sigs.k8s.io/docs/user/quick-start/#installation",
	toolcmd.K3d:     "https://k3d.io/#installation",
}

// Require returns a ToolUnavailable error when tool cannot be found by e.
func Require(e Executor, tool toolcmd.Tool) error {
	err := e.LookPath(tool)
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf("%s is not installed or not found in PATH", tool)
	if hint, ok := installHints[tool]; ok {
		msg += "; see " + hint
	}
	return errs.Wrap(errs.ToolUnavailable, err, msg).WithTarget(string(tool))
}
