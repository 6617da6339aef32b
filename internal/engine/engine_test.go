package engine

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afstanton/meshstack/internal/config"
	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/executor"
	"github.com/afstanton/meshstack/internal/services"
	"github.com/afstanton/meshstack/internal/toolcmd"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type project struct {
	t    *testing.T
	root string
	cfg  *config.ProjectConfig
}

func newProject(t *testing.T) *project {
	t.Helper()
	root := t.TempDir()
	cfg := config.Defaults()
	require.NoError(t, config.Save(root, cfg))
	require.NoError(t, os.Mkdir(services.Root(root), 0o755))
	return &project{t: t, root: root, cfg: &cfg}
}

func (p *project) write(rel, body string) {
	p.t.Helper()
	path := filepath.Join(p.root, filepath.FromSlash(rel))
	require.NoError(p.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(p.t, os.WriteFile(path, []byte(body), 0o644))
}

func (p *project) service(name string, files ...string) {
	p.t.Helper()
	require.NoError(p.t, os.MkdirAll(filepath.Join(services.Root(p.root), name), 0o755))
	for _, f := range files {
		p.write("services/"+name+"/"+f, "x")
	}
}

func (p *project) env(mod func(*EnvOptions)) Env {
	opts := EnvOptions{Root: p.root, Config: p.cfg}
	if mod != nil {
		mod(&opts)
	}
	return NewEnv(opts)
}

func execute(t *testing.T, env Env, rec *executor.Recorder, req Request, opts ...Option) (string, error) {
	t.Helper()
	var out bytes.Buffer
	_, err := NewOrchestrator(env, rec, &out, nil, opts...).Execute(context.Background(), req)
	return out.String(), err
}

func preview(t *testing.T, env Env, req Request) (string, *Plan, error) {
	t.Helper()
	var out bytes.Buffer
	plan, err := NewPlanner(env, &out, nil).Preview(req)
	return out.String(), plan, err
}

func linesWithPrefix(out, prefix string) []string {
	var got []string
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, prefix) {
			got = append(got, strings.TrimSpace(strings.TrimPrefix(l, prefix)))
		}
	}
	return got
}

func TestUnknownProfileFailsBeforeSpawning(t *testing.T) {
	p := newProject(t)
	p.service("api", services.Dockerfile, services.ChartFile)

	cases := []Request{
		InstallRequest{Profile: "staging"},
		InstallRequest{Profile: "qa"},
		DeployRequest{Environment: "qa"},
		BootstrapRequest{Install: true, Profile: "qa"},
	}
	for _, req := range cases {
		rec := executor.NewRecorder()
		_, err := execute(t, p.env(nil), rec, req)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.UnknownTarget), "%#v: %v", req, err)
		assert.Empty(t, rec.Calls())
	}
}

func TestCustomProfileNotImplemented(t *testing.T) {
	p := newProject(t)
	p.service("api", services.Dockerfile, services.ChartFile)
	for _, req := range []Request{
		InstallRequest{Profile: "custom"},
		DeployRequest{Environment: "custom"},
		BootstrapRequest{Profile: "custom"},
	} {
		rec := executor.NewRecorder()
		_, err := execute(t, p.env(nil), rec, req)
		require.Error(t, err)
		assert.True(t, errs.IsKind(err, errs.NotImplemented), "%#v", req)
		assert.Equal(t, "custom profile not yet implemented", err.Error())
		assert.Empty(t, rec.Calls())

		_, _, err = preview(t, p.env(nil), req)
		assert.True(t, errs.IsKind(err, errs.NotImplemented))
	}
}

func TestInstallDefaultSetInCatalogOrder(t *testing.T) {
	p := newProject(t)
	plan, err := Decide(p.env(nil), InstallRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{"istio", "prometheus", "grafana", "cert-manager", "nginx-ingress"}, plan.Targets)

	rec := executor.NewRecorder()
	out, err := execute(t, p.env(nil), rec, InstallRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"helm install istio istio/istio",
		"helm install prometheus prometheus-community/prometheus",
		"helm install grafana grafana/grafana",
		"helm install cert-manager cert-manager/cert-manager",
		"helm install nginx-ingress ingress-nginx/ingress-nginx",
	}, rec.Lines())
	assert.Contains(t, out, "No component specified, installing default set.")
	assert.Contains(t, out, "Installation of nginx-ingress successful.")
}

func TestDryRunSpawnsNothing(t *testing.T) {
	p := newProject(t)
	p.write("dev-values.yaml", "replicaCount: 1\n")
	// helm is missing: dry-run must not even look for it.
	rec := executor.NewRecorder().Missing(toolcmd.Helm)

	out, err := execute(t, p.env(func(o *EnvOptions) {
		o.DryRun = true
		o.KubeContext = "dev-ctx"
	}), rec, InstallRequest{Profile: "dev"})
	require.NoError(t, err)
	assert.Empty(t, rec.Calls())
	assert.Equal(t, []string{
		"helm install istio istio/istio --dry-run --kube-context dev-ctx --values dev-values.yaml",
		"helm install prometheus prometheus-community/prometheus --dry-run --kube-context dev-ctx --values dev-values.yaml",
		"helm install grafana grafana/grafana --dry-run --kube-context dev-ctx --values dev-values.yaml",
		"helm install cert-manager cert-manager/cert-manager --dry-run --kube-context dev-ctx --values dev-values.yaml",
		"helm install nginx-ingress ingress-nginx/ingress-nginx --dry-run --kube-context dev-ctx --values dev-values.yaml",
	}, linesWithPrefix(out, DryRunPrefix))
}

func TestDryRunDeploy(t *testing.T) {
	p := newProject(t)
	p.service("api", services.Dockerfile, services.ChartFile)
	p.service("web", services.Dockerfile, services.ChartFile)
	rec := executor.NewRecorder()

	out, err := execute(t, p.env(func(o *EnvOptions) { o.DryRun = true }), rec,
		DeployRequest{Build: true, Push: true})
	require.NoError(t, err)
	assert.Empty(t, rec.Calls())
	assert.Len(t, linesWithPrefix(out, DryRunPrefix), 6)
}

func TestAcmeLinkerdProdInstall(t *testing.T) {
	root := t.TempDir()
	cfg := config.Defaults().WithOverrides("acme", "", "linkerd", "")
	require.NoError(t, config.Save(root, cfg))
	require.NoError(t, os.WriteFile(filepath.Join(root, "prod-values.yaml"), []byte("replicaCount: 3\n"), 0o644))

	loaded, err := config.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "acme", loaded.ProjectName)
	assert.Equal(t, "linkerd", loaded.ServiceMesh)

	rec := executor.NewRecorder()
	env := NewEnv(EnvOptions{Root: root, KubeContext: "prod-ctx", Config: loaded})
	_, err = execute(t, env, rec, InstallRequest{Profile: "prod"})
	require.NoError(t, err)

	lines := rec.Lines()
	require.Len(t, lines, 5)
	for _, l := range lines {
		assert.True(t, strings.HasSuffix(l, "--kube-context prod-ctx --values prod-values.yaml"), l)
	}
	assert.Equal(t, "helm install istio istio/istio --kube-context prod-ctx --values prod-values.yaml", lines[0])
}

func TestMissingValuesFileWarnsAndOmitsFlag(t *testing.T) {
	p := newProject(t)
	p.service("api", services.ChartFile)

	rec := executor.NewRecorder()
	out, err := execute(t, p.env(nil), rec, InstallRequest{Component: "grafana", Profile: "prod"})
	require.NoError(t, err)
	assert.Contains(t, out, "warning: values file prod-values.yaml not found; continuing without --values")
	assert.Equal(t, []string{"helm install grafana grafana/grafana"}, rec.Lines())

	rec = executor.NewRecorder()
	out, err = execute(t, p.env(nil), rec, DeployRequest{Environment: "staging"})
	require.NoError(t, err)
	assert.Contains(t, out, "staging-values.yaml not found")
	assert.Equal(t, []string{"helm upgrade --install meshstack-api services/api"}, rec.Lines())
}

func TestUnknownComponentIdenticalInPreviewAndExecution(t *testing.T) {
	p := newProject(t)
	rec := executor.NewRecorder()

	_, execErr := execute(t, p.env(nil), rec, InstallRequest{Component: "nonexistent"})
	out, _, previewErr := preview(t, p.env(nil), InstallRequest{Component: "nonexistent"})

	require.Error(t, execErr)
	require.Error(t, previewErr)
	assert.Equal(t, execErr.Error(), previewErr.Error())
	assert.Equal(t, errs.KindOf(execErr), errs.KindOf(previewErr))
	assert.True(t, errs.IsKind(execErr, errs.UnknownTarget))
	assert.Contains(t, execErr.Error(), "valid components are: istio, prometheus, grafana, cert-manager, nginx-ingress, vault")
	assert.Empty(t, rec.Calls())
	assert.Empty(t, out)
}

func TestInstallFailFast(t *testing.T) {
	p := newProject(t)
	rec := executor.NewRecorder().
		Respond("helm install prometheus", executor.Result{ExitCode: 1, Stdout: "partial", Stderr: "Error: INSTALLATION FAILED"})

	out, err := execute(t, p.env(nil), rec, InstallRequest{})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ToolInvocationFailed))
	assert.Contains(t, err.Error(), "Error: INSTALLATION FAILED")
	assert.Contains(t, err.Error(), "partial")
	assert.Equal(t, 2, len(rec.Calls()))
	assert.Contains(t, out, "Installation of istio successful.")
	assert.NotContains(t, out, "Installation of prometheus successful.")
}

func TestToolUnavailable(t *testing.T) {
	p := newProject(t)
	rec := executor.NewRecorder().Missing(toolcmd.Helm)
	_, err := execute(t, p.env(nil), rec, InstallRequest{Component: "istio"})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ToolUnavailable))
	assert.Empty(t, rec.Calls())
}

func TestDeployRequiresConfig(t *testing.T) {
	root := t.TempDir()
	rec := executor.NewRecorder()
	_, err := execute(t, NewEnv(EnvOptions{Root: root}), rec, DeployRequest{})
	assert.True(t, errs.IsKind(err, errs.ConfigMissing))
}

func TestDeployEmptyAndMissingRoot(t *testing.T) {
	p := newProject(t)
	rec := executor.NewRecorder()
	out, err := execute(t, p.env(nil), rec, DeployRequest{Build: true, Push: true})
	require.NoError(t, err)
	assert.Contains(t, out, "No services found to deploy.")
	assert.Empty(t, rec.Calls())

	require.NoError(t, os.Remove(services.Root(p.root)))
	_, err = execute(t, p.env(nil), rec, DeployRequest{})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.PreconditionFailed))
	assert.Empty(t, rec.Calls())
}

func TestDeployBuildPushUpgradeOrder(t *testing.T) {
	p := newProject(t)
	p.service("web", services.Dockerfile, services.ChartFile)
	p.service("api", services.Dockerfile, services.ChartFile)
	p.write("dev-values.yaml", "a: b\n")

	rec := executor.NewRecorder()
	env := p.env(func(o *EnvOptions) {
		o.Registry = "ghcr.io/acme"
		o.KubeContext = "dev"
	})
	out, err := execute(t, env, rec, DeployRequest{Environment: "dev", Build: true, Push: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"docker build -t ghcr.io/acme/api:latest services/api",
		"docker push ghcr.io/acme/api:latest",
		"helm upgrade --install meshstack-api services/api --kube-context dev --values dev-values.yaml",
		"docker build -t ghcr.io/acme/web:latest services/web",
		"docker push ghcr.io/acme/web:latest",
		"helm upgrade --install meshstack-web services/web --kube-context dev --values dev-values.yaml",
	}, rec.Lines())
	assert.Contains(t, out, "Successfully built Docker image: ghcr.io/acme/api:latest")
}

func TestDeployServiceSelection(t *testing.T) {
	p := newProject(t)
	p.service("api", services.ChartFile)
	p.service("web", services.ChartFile)

	rec := executor.NewRecorder()
	_, err := execute(t, p.env(nil), rec, DeployRequest{Service: "web"})
	require.NoError(t, err)
	assert.Equal(t, []string{"helm upgrade --install meshstack-web services/web"}, rec.Lines())

	_, err = execute(t, p.env(nil), executor.NewRecorder(), DeployRequest{Service: "nope"})
	assert.True(t, errs.IsKind(err, errs.UnknownTarget))
}

func TestDeployMissingArtifacts(t *testing.T) {
	p := newProject(t)
	p.service("api", services.ChartFile)
	p.service("web", services.Dockerfile)

	rec := executor.NewRecorder()
	_, err := execute(t, p.env(nil), rec, DeployRequest{Service: "api", Build: true})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ServiceArtifactMissing))
	assert.Contains(t, err.Error(), "Dockerfile not found")

	_, err = execute(t, p.env(nil), rec, DeployRequest{})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ServiceArtifactMissing))
	assert.Contains(t, err.Error(), "Chart.yaml not found")
	assert.Empty(t, rec.Calls())
}

func TestDestroyRequiresConfirmation(t *testing.T) {
	p := newProject(t)
	cases := []DestroyRequest{
		{Service: "api"},
		{Component: "vault"},
		{Full: true},
	}
	for _, req := range cases {
		rec := executor.NewRecorder()
		out, err := execute(t, p.env(nil), rec, req)
		require.NoError(t, err)
		assert.Zero(t, rec.CountPrefix("helm uninstall"))
		assert.Contains(t, out, "not confirmed")
		assert.Contains(t, out, "Would destroy: ")
	}
}

func TestDestroyConfirmedUninstallsEachTarget(t *testing.T) {
	p := newProject(t)
	p.service("api")

	rec := executor.NewRecorder()
	_, err := execute(t, p.env(func(o *EnvOptions) { o.KubeContext = "c" }), rec, DestroyRequest{Full: true, Component: "istio", Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"helm uninstall meshstack-api --kube-context c",
		"helm uninstall istio --kube-context c",
		"helm uninstall prometheus --kube-context c",
		"helm uninstall grafana --kube-context c",
		"helm uninstall cert-manager --kube-context c",
		"helm uninstall nginx-ingress --kube-context c",
		"helm uninstall vault --kube-context c",
	}, rec.Lines())

	rec = executor.NewRecorder()
	_, err = execute(t, p.env(nil), rec, DestroyRequest{Service: "api", Component: "vault", Confirm: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"helm uninstall meshstack-api", "helm uninstall vault"}, rec.Lines())
}

func TestDestroyFullSixComponents(t *testing.T) {
	root := t.TempDir()
	plan, err := Decide(NewEnv(EnvOptions{Root: root}), DestroyRequest{Full: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"istio", "prometheus", "grafana", "cert-manager", "nginx-ingress", "vault"}, plan.Targets)
	assert.True(t, plan.Gated)
}

func TestDestroyFailFast(t *testing.T) {
	p := newProject(t)
	rec := executor.NewRecorder().Respond("helm uninstall prometheus", executor.Result{ExitCode: 1, Stderr: "release: not found"})
	_, err := execute(t, p.env(nil), rec, DestroyRequest{Full: true, Confirm: true})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.ToolInvocationFailed))
	assert.Equal(t, 2, rec.CountPrefix("helm uninstall"))
}

func TestDestroyNothingSelected(t *testing.T) {
	p := newProject(t)
	_, err := execute(t, p.env(nil), executor.NewRecorder(), DestroyRequest{Confirm: true})
	assert.True(t, errs.IsKind(err, errs.PreconditionFailed))
}

func TestDestroyUnknownComponent(t *testing.T) {
	p := newProject(t)
	_, err := execute(t, p.env(nil), executor.NewRecorder(), DestroyRequest{Component: "linkerd", Confirm: true})
	assert.True(t, errs.IsKind(err, errs.UnknownTarget))
}

func TestStatusReportsReleases(t *testing.T) {
	p := newProject(t)
	p.service("api")
	require.NoError(t, os.WriteFile(filepath.Join(p.root, "meshstack.lock"),
		[]byte("templates_version: 1.0.0\ncomponents:\n  istio: 1.22.0\n"), 0o644))

	rec := executor.NewRecorder().
		Respond("helm list --filter ^istio$", executor.Result{Stdout: `[{"name":"istio","namespace":"istio-system","chart":"istio-1.23.0","status":"deployed"}]`}).
		Respond("helm list --filter ^meshstack-api$", executor.Result{Stdout: `[{"name":"meshstack-api","namespace":"default","chart":"api-0.1.0","status":"deployed"}]`})

	out, err := execute(t, p.env(nil), rec, StatusRequest{})
	require.NoError(t, err)
	assert.Contains(t, out, "istio: deployed (chart istio-1.23.0, namespace istio-system)")
	assert.Contains(t, out, "vault: not installed")
	assert.Contains(t, out, "meshstack-api: deployed (chart api-0.1.0, namespace default)")
	assert.Contains(t, out, "istio: locked 1.22.0, installed 1.23.0 (drift)")
	assert.Contains(t, out, "templates_version: 1.0.0")
	assert.Equal(t, 8, rec.CountPrefix("helm list"))
}

func TestStatusSelectors(t *testing.T) {
	root := t.TempDir()
	rec := executor.NewRecorder()
	out, err := execute(t, NewEnv(EnvOptions{Root: root}), rec, StatusRequest{Services: true})
	require.NoError(t, err)
	assert.Contains(t, out, "services directory not found")
	assert.Empty(t, rec.Calls())
}

func TestBootstrapCreatesAndSwitches(t *testing.T) {
	p := newProject(t)
	rec := executor.NewRecorder().Respond("kind get clusters", executor.Result{Stdout: "other\n"})
	out, err := execute(t, p.env(nil), rec, BootstrapRequest{Name: "dev", Install: true})
	require.NoError(t, err)

	lines := rec.Lines()
	require.Len(t, lines, 8)
	assert.Equal(t, "kind get clusters", lines[0])
	assert.Equal(t, "kind create cluster --name dev", lines[1])
	assert.Equal(t, "kubectl config use-context kind-dev", lines[2])
	assert.Equal(t, "helm install istio istio/istio --kube-context kind-dev", lines[3])
	assert.Contains(t, out, "Created kind cluster dev.")
}

func TestBootstrapSkipsExistingCluster(t *testing.T) {
	p := newProject(t)
	rec := executor.NewRecorder().Respond("k3d cluster list", executor.Result{Stdout: `[{"name":"meshstack"}]`})
	out, err := execute(t, p.env(nil), rec, BootstrapRequest{Provider: "k3d"})
	require.NoError(t, err)
	assert.Equal(t, []string{"k3d cluster list --output json", "kubectl config use-context k3d-meshstack"}, rec.Lines())
	assert.Contains(t, out, "meshstack already exists; skipping creation.")
}

func TestBootstrapUnknownProviderAndMissingTool(t *testing.T) {
	p := newProject(t)
	_, err := execute(t, p.env(nil), executor.NewRecorder(), BootstrapRequest{Provider: "minikube"})
	assert.True(t, errs.IsKind(err, errs.UnknownTarget))

	rec := executor.NewRecorder().Missing(toolcmd.Kind)
	_, err = execute(t, p.env(nil), rec, BootstrapRequest{})
	assert.True(t, errs.IsKind(err, errs.ToolUnavailable))
	assert.Empty(t, rec.Calls())
}

func TestPreviewMatchesExecution(t *testing.T) {
	p := newProject(t)
	p.write("prod-values.yaml", "x: y\n")
	req := InstallRequest{Profile: "prod"}
	env := p.env(func(o *EnvOptions) { o.KubeContext = "prod-ctx" })

	out, plan, err := preview(t, env, req)
	require.NoError(t, err)

	rec := executor.NewRecorder()
	_, err = execute(t, env, rec, req)
	require.NoError(t, err)

	var planned []string
	for _, inv := range plan.Invocations() {
		planned = append(planned, inv.String())
	}
	assert.Equal(t, rec.Lines(), planned)
	for _, l := range rec.Lines() {
		assert.Contains(t, out, PlanPrefix+" "+l)
	}
	assert.Contains(t, out, "[plan] install: 5 target(s)")
}

func TestPreviewDestroyGated(t *testing.T) {
	p := newProject(t)
	out, plan, err := preview(t, p.env(nil), DestroyRequest{Component: "vault"})
	require.NoError(t, err)
	assert.True(t, plan.Gated)
	assert.Contains(t, out, "[plan] helm uninstall vault")
	assert.Contains(t, out, "[plan] destroy not confirmed")
}

func TestPreviewBootstrapShowsProbe(t *testing.T) {
	p := newProject(t)
	out, _, err := preview(t, p.env(nil), BootstrapRequest{Name: "dev"})
	require.NoError(t, err)
	assert.Contains(t, out, "[plan] kind get clusters\n[plan] kind create cluster --name dev (skipped if dev already exists)")
}

func TestEnvIsImmutable(t *testing.T) {
	cfg := config.Defaults()
	env := NewEnv(EnvOptions{Config: &cfg})
	cfg.ProjectName = "changed"
	assert.Equal(t, "my-app", env.Config().ProjectName)

	got := env.Config()
	got.ProjectName = "mutated"
	assert.Equal(t, "my-app", env.Config().ProjectName)
	assert.Equal(t, ".", env.Root())
	assert.Equal(t, "meshstack", env.Registry())
}

func TestNilLoggerIsSilent(t *testing.T) {
	p := newProject(t)
	o := NewOrchestrator(p.env(nil), executor.NewRecorder(), io.Discard, nil)
	assert.False(t, o.logger.Enabled(context.Background(), slog.LevelError))
	pl := NewPlanner(p.env(nil), io.Discard, nil)
	assert.False(t, pl.logger.Enabled(context.Background(), slog.LevelError))
}
