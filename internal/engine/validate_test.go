package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/executor"
	"github.com/afstanton/meshstack/internal/services"
	"github.com/afstanton/meshstack/internal/toolcmd"
)

func validate(t *testing.T, env Env, rec *executor.Recorder, req ValidateRequest) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewOrchestrator(env, rec, &out, nil).Validate(context.Background(), req)
	return out.String(), err
}

func TestValidateConfigOnly(t *testing.T) {
	p := newProject(t)
	rec := executor.NewRecorder()
	out, err := validate(t, p.env(nil), rec, ValidateRequest{Config: true})
	require.NoError(t, err)
	assert.Equal(t, "Validating project...\nmeshstack.yaml is valid.\n", out)
	assert.Empty(t, rec.Calls())
}

func TestValidateConfigMissing(t *testing.T) {
	_, err := validate(t, NewEnv(EnvOptions{Root: t.TempDir()}), executor.NewRecorder(), ValidateRequest{Config: true})
	assert.True(t, errs.IsKind(err, errs.ConfigMissing))
}

func TestValidateServices(t *testing.T) {
	p := newProject(t)
	p.service("api", services.Dockerfile, services.ChartFile)
	out, err := validate(t, p.env(nil), executor.NewRecorder(), ValidateRequest{Services: true})
	require.NoError(t, err)
	assert.Contains(t, out, "1 service(s) are buildable and deployable.")

	p.service("web", services.Dockerfile)
	_, err = validate(t, p.env(nil), executor.NewRecorder(), ValidateRequest{Services: true})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ServiceArtifactMissing))
	assert.Contains(t, err.Error(), "web: missing Chart.yaml")
}

func TestValidateCI(t *testing.T) {
	p := newProject(t)
	_, err := validate(t, p.env(nil), executor.NewRecorder(), ValidateRequest{CI: true})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.PreconditionFailed))
	assert.Contains(t, err.Error(), "meshstack generate ci")

	p.write(".github/workflows/meshstack.yaml", "name: [unclosed\n")
	_, err = validate(t, p.env(nil), executor.NewRecorder(), ValidateRequest{CI: true})
	assert.True(t, errs.IsKind(err, errs.ConfigInvalid))

	p.write(".github/workflows/meshstack.yaml", "name: ci\non: push\n")
	out, err := validate(t, p.env(nil), executor.NewRecorder(), ValidateRequest{CI: true})
	require.NoError(t, err)
	assert.Contains(t, out, "CI manifest .github/workflows/meshstack.yaml is valid.")
}

func TestValidateCluster(t *testing.T) {
	p := newProject(t)
	rec := executor.NewRecorder().Respond("kubectl cluster-info", executor.Result{Stdout: "Kubernetes control plane is running"})
	out, err := validate(t, p.env(func(o *EnvOptions) { o.KubeContext = "kind-dev" }), rec, ValidateRequest{Cluster: true})
	require.NoError(t, err)
	assert.Contains(t, out, "Connected to Kubernetes cluster successfully.")
	assert.Equal(t, []string{"kubectl cluster-info --context kind-dev"}, rec.Lines())

	rec = executor.NewRecorder().Respond("kubectl cluster-info", executor.Result{ExitCode: 1, Stderr: "connection refused"})
	_, err = validate(t, p.env(nil), rec, ValidateRequest{Cluster: true})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ToolInvocationFailed))
	assert.Contains(t, err.Error(), "failed to connect to Kubernetes cluster")

	rec = executor.NewRecorder().Missing(toolcmd.Kubectl)
	_, err = validate(t, p.env(nil), rec, ValidateRequest{Cluster: true})
	assert.True(t, errs.IsKind(err, errs.ToolUnavailable))
}

func TestValidateAllRunsEveryCheckInOrder(t *testing.T) {
	p := newProject(t)
	p.write(".github/workflows/meshstack.yaml", "name: ci\n")
	rec := executor.NewRecorder()

	for _, req := range []ValidateRequest{{}, {Full: true, Config: true}} {
		out, err := validate(t, p.env(nil), rec, req)
		require.NoError(t, err)
		assert.Equal(t, "Validating project...\n"+
			"meshstack.yaml is valid.\n"+
			"No services found.\n"+
			"CI manifest .github/workflows/meshstack.yaml is valid.\n"+
			"Connected to Kubernetes cluster successfully.\n", out)
	}
	assert.Equal(t, 2, rec.CountPrefix("kubectl cluster-info"))
}

func TestValidateStopsAtFirstFailure(t *testing.T) {
	p := newProject(t)
	rec := executor.NewRecorder()
	_, err := validate(t, p.env(nil), rec, ValidateRequest{})
	assert.True(t, errs.IsKind(err, errs.PreconditionFailed))
	assert.Empty(t, rec.Calls())
}
