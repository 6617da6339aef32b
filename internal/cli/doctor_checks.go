package cli

import (
	"context"
	"log/slog"
	"strings"

	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/executor"
	"github.com/afstanton/meshstack/internal/toolcmd"
)

var (
	doctorRequired = []toolcmd.Tool{toolcmd.Helm, toolcmd.Kubectl}
	doctorOptional = []toolcmd.Tool{toolcmd.Docker, toolcmd.Kind, toolcmd.K3d}
)

func runDoctorChecks(ctx context.Context, logger *slog.Logger, exec executor.Executor) error {
	if logger == nil {
		logger = slog.Default()
	}

	missing := make([]string, 0, len(doctorRequired))
	for _, tool := range doctorRequired {
		if err := executor.Require(exec, tool); err != nil {
			logger.Error("doctor check failed: missing required tool", "tool", tool, "error", err)
			missing = append(missing, string(tool))
			continue
		}
		logger.Info("doctor check ok", "tool", tool)
	}

	for _, tool := range doctorOptional {
		if err := executor.Require(exec, tool); err != nil {
			logger.Warn("optional tool not found; commands that need it will fail", "tool", tool)
			continue
		}
		logger.Info("doctor check ok", "tool", tool)
	}

	if len(missing) > 0 {
		return errs.Newf(errs.ToolUnavailable, "required tools missing from PATH: %s", strings.Join(missing, ", "))
	}

	res, err := exec.Run(ctx, toolcmd.HelmVersion())
	switch {
	case err != nil:
		logger.Warn("helm version check failed", "error", err)
	case !res.Success():
		logger.Warn("helm version check failed", "exit_code", res.ExitCode, "stderr", strings.TrimSpace(res.Stderr))
	default:
		logger.Info("helm version", "version", strings.TrimSpace(res.Stdout))
	}

	return nil
}
