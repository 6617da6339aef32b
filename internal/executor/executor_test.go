package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/toolcmd"
)

func TestRecorderMatchesLatestPrefix(t *testing.T) {
	rec := NewRecorder().
		Respond("helm", Result{Stdout: "generic"}).
		Respond("helm list", Result{Stdout: "[]"})

	res, err := rec.Run(context.Background(), toolcmd.HelmList("^istio$", ""))
	require.NoError(t, err)
	assert.Equal(t, "[]", res.Stdout)

	res, err = rec.Run(context.Background(), toolcmd.HelmVersion())
	require.NoError(t, err)
	assert.Equal(t, "generic", res.Stdout)

	res, err = rec.Run(context.Background(), toolcmd.DockerPush("r", "api"))
	require.NoError(t, err)
	assert.True(t, res.Success())

	assert.Equal(t, []string{
		"helm list --filter ^istio$ --output json",
		"helm version",
		"docker push r/api:latest",
	}, rec.Lines())
	assert.Equal(t, 2, rec.CountPrefix("helm "))
}

func TestRecorderFailuresAndMissingTools(t *testing.T) {
	boom := errors.New("boom")
	rec := NewRecorder().Fail("docker build", boom).Missing(toolcmd.Kind)

	_, err := rec.Run(context.Background(), toolcmd.DockerBuild("r", "api", "services/api"))
	assert.ErrorIs(t, err, boom)

	assert.Error(t, rec.LookPath(toolcmd.Kind))
	assert.NoError(t, rec.LookPath(toolcmd.Helm))
}

func TestProcessCapturesExitCode(t *testing.T) {
	p := New(t.TempDir(), nil)
	if err := p.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	res, err := p.Run(context.Background(), toolcmd.Invocation{Tool: "sh", Args: []string{"-c", "echo out; echo err >&2; exit 3"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.False(t, res.Success())
}

func TestProcessStartFailure(t *testing.T) {
	p := New("", nil)
	_, err := p.Run(context.Background(), toolcmd.Invocation{Tool: "meshstack-definitely-missing-tool"})
	assert.Error(t, err)
	assert.Error(t, p.LookPath("meshstack-definitely-missing-tool"))
}

func TestRequire(t *testing.T) {
	rec := NewRecorder().Missing(toolcmd.Helm)
	err := Require(rec, toolcmd.Helm)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ToolUnavailable))
	assert.Contains(t, err.Error(), "https://helm.sh/docs/intro/install/")
	assert.NoError(t, Require(rec, toolcmd.Docker))
}
