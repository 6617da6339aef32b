package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/afstanton/meshstack/internal/catalog"
	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/executor"
	"github.com/afstanton/meshstack/internal/profile"
	"github.com/afstanton/meshstack/internal/scaffold"
	"github.com/afstanton/meshstack/internal/services"
	"github.com/afstanton/meshstack/internal/state"
	"github.com/afstanton/meshstack/internal/toolcmd"
	"github.com/afstanton/meshstack/internal/update"
)

// Defaults for bootstrap.
const (
	DefaultProvider    = "kind"
	DefaultClusterName = "meshstack"
)

// Decide resolves req against env into a plan. It reads the filesystem but never
// spawns a process; execution and preview both start here.
func Decide(env Env, req Request) (*Plan, error) {
	switch r := req.(type) {
	case InstallRequest:
		return decideInstall(env, r)
	case DeployRequest:
		return decideDeploy(env, r)
	case DestroyRequest:
		return decideDestroy(env, r)
	case StatusRequest:
		return decideStatus(env, r)
	case BootstrapRequest:
		return decideBootstrap(env, r)
	case UpdateRequest:
		return decideUpdate(env, r)
	default:
		return nil, errs.Newf(errs.NotImplemented, "unsupported request %T", req)
	}
}

func errConfigMissing() error {
	return errs.New(errs.ConfigMissing, "meshstack.yaml not found or invalid; run `meshstack init` first")
}

// resolveValues drops an overlay that is not on disk, recording a warning in the plan.
func resolveValues(env Env, p *Plan, vf profile.ValuesFile) string {
	if vf == "" {
		return ""
	}
	if _, err := os.Stat(filepath.Join(env.Root(), string(vf))); err != nil {
		p.warn(fmt.Sprintf("values file %s not found; continuing without --values", vf))
		return ""
	}
	return string(vf)
}

func addInstalls(p *Plan, targets []catalog.Component, opts toolcmd.Options) {
	for _, c := range targets {
		p.Targets = append(p.Targets, c.Key)
		p.add(Step{
			Kind:       StepInstall,
			Target:     c.Key,
			Invocation: toolcmd.HelmInstall(c.Release(), c.Chart, opts),
			Message:    fmt.Sprintf("Installation of %s successful.", c.Key),
			Mutating:   true,
		})
	}
}

func decideInstall(env Env, r InstallRequest) (*Plan, error) {
	targets := catalog.DefaultInstallSet()
	if r.Component != "" {
		c, err := catalog.Lookup(r.Component)
		if err != nil {
			return nil, err
		}
		targets = []catalog.Component{c}
	}
	vf, err := profile.Resolve(r.Profile, profile.InstallProfiles)
	if err != nil {
		return nil, err
	}

	p := newPlan(OpInstall)
	if r.Component == "" {
		p.notice("No component specified, installing default set.")
	}
	values := resolveValues(env, p, vf)
	addInstalls(p, targets, toolcmd.Options{ValuesFile: values, KubeContext: env.KubeContext(), DryRun: env.DryRun()})
	return p, nil
}

func decideDeploy(env Env, r DeployRequest) (*Plan, error) {
	if env.Config() == nil {
		return nil, errConfigMissing()
	}
	vf, err := profile.Resolve(r.Environment, profile.DeployEnvironments)
	if err != nil {
		return nil, err
	}

	var targets []services.Service
	if r.Service != "" {
		svc, err := services.Lookup(env.Root(), r.Service)
		if err != nil {
			return nil, err
		}
		targets = []services.Service{svc}
	} else {
		targets, err = services.Discover(env.Root())
		if err != nil {
			return nil, err
		}
	}

	p := newPlan(OpDeploy)
	if len(targets) == 0 {
		p.notice("No services found to deploy.")
		return p, nil
	}

	for _, svc := range targets {
		if r.Build && !svc.Buildable() {
			return nil, errs.Newf(errs.ServiceArtifactMissing, "%s not found in %s", services.Dockerfile, svc.Path).WithTarget(svc.Name)
		}
		if !svc.Deployable() {
			return nil, errs.Newf(errs.ServiceArtifactMissing, "%s not found in %s", services.ChartFile, svc.Path).WithTarget(svc.Name)
		}
	}

	values := resolveValues(env, p, vf)
	for _, svc := range targets {
		p.Targets = append(p.Targets, svc.Release())
		image := toolcmd.ImageRef(env.Registry(), svc.Name)
		if r.Build {
			p.add(Step{
				Kind:       StepBuild,
				Target:     svc.Name,
				Invocation: toolcmd.DockerBuild(env.Registry(), svc.Name, svc.Path),
				Message:    "Successfully built Docker image: " + image,
				Mutating:   true,
			})
		}
		if r.Push {
			p.add(Step{
				Kind:       StepPush,
				Target:     svc.Name,
				Invocation: toolcmd.DockerPush(env.Registry(), svc.Name),
				Message:    "Successfully pushed Docker image: " + image,
				Mutating:   true,
			})
		}
		p.add(Step{
			Kind:       StepUpgrade,
			Target:     svc.Name,
			Invocation: toolcmd.HelmUpgradeInstall(svc.Release(), svc.Path, toolcmd.Options{ValuesFile: values, KubeContext: env.KubeContext()}),
			Message:    fmt.Sprintf("Deployed %s as release %s.", svc.Name, svc.Release()),
			Mutating:   true,
		})
	}
	return p, nil
}

func decideDestroy(env Env, r DestroyRequest) (*Plan, error) {
	if !r.Full && r.Service == "" && r.Component == "" {
		return nil, errs.New(errs.PreconditionFailed, "nothing selected to destroy; pass --service, --component or --full")
	}
	var component *catalog.Component
	if r.Component != "" {
		c, err := catalog.Lookup(r.Component)
		if err != nil {
			return nil, err
		}
		component = &c
	}

	p := newPlan(OpDestroy)
	p.Gated = !r.Confirm
	seen := map[string]struct{}{}
	add := func(release string) {
		if _, dup := seen[release]; dup {
			return
		}
		seen[release] = struct{}{}
		p.Targets = append(p.Targets, release)
		p.add(Step{
			Kind:       StepUninstall,
			Target:     release,
			Invocation: toolcmd.HelmUninstall(release, toolcmd.Options{KubeContext: env.KubeContext()}),
			Message:    fmt.Sprintf("Uninstalled %s.", release),
			Mutating:   true,
		})
	}

	if r.Full {
		names, err := services.List(env.Root())
		if err != nil && !errs.IsKind(err, errs.PreconditionFailed) {
			return nil, err
		}
		for _, n := range names {
			add(services.ReleasePrefix + n)
		}
		for _, c := range catalog.DefaultDestroySet() {
			add(c.Release())
		}
	}
	if r.Service != "" {
		add(services.ReleasePrefix + r.Service)
	}
	if component != nil {
		add(component.Release())
	}
	return p, nil
}

func queryRelease(release, kubeContext string, report func(executor.Result) string) Step {
	return Step{
		Kind:       StepQuery,
		Target:     release,
		Invocation: toolcmd.HelmList("^"+release+"$", kubeContext),
		Report:     report,
	}
}

func releaseReport(release string) func(executor.Result) string {
	return func(res executor.Result) string {
		rel, err := update.FindRelease(res.Stdout, release)
		switch {
		case err != nil:
			return fmt.Sprintf("  %s: unreadable helm output (%v)", release, err)
		case rel == nil:
			return fmt.Sprintf("  %s: not installed", release)
		default:
			return fmt.Sprintf("  %s: %s (chart %s, namespace %s)", release, rel.Status, rel.Chart, rel.Namespace)
		}
	}
}

func lockReport(release, locked string) func(executor.Result) string {
	return func(res executor.Result) string {
		rel, err := update.FindRelease(res.Stdout, release)
		switch {
		case err != nil:
			return fmt.Sprintf("  %s: unreadable helm output (%v)", release, err)
		case rel == nil:
			return fmt.Sprintf("  %s: locked %s, not installed", release, locked)
		case rel.Version() == locked:
			return fmt.Sprintf("  %s: locked %s, in sync", release, locked)
		default:
			return fmt.Sprintf("  %s: locked %s, installed %s (drift)", release, locked, rel.Version())
		}
	}
}

func decideStatus(env Env, r StatusRequest) (*Plan, error) {
	all := r.selectsAll()
	p := newPlan(OpStatus)
	if env.KubeContext() != "" {
		p.notice("Context: " + env.KubeContext())
	}

	if all || r.Components {
		p.notice("Components:")
		for _, c := range catalog.DefaultDestroySet() {
			p.Targets = append(p.Targets, c.Release())
			p.add(queryRelease(c.Release(), env.KubeContext(), releaseReport(c.Release())))
		}
	}

	if all || r.Services {
		p.notice("Services:")
		names, err := services.List(env.Root())
		switch {
		case errs.IsKind(err, errs.PreconditionFailed):
			p.notice("  services directory not found; run `meshstack init` first")
		case err != nil:
			return nil, err
		case len(names) == 0:
			p.notice("  no services found")
		}
		for _, n := range names {
			release := services.ReleasePrefix + n
			p.Targets = append(p.Targets, release)
			p.add(queryRelease(release, env.KubeContext(), releaseReport(release)))
		}
	}

	if all || r.Lockfile {
		lock, err := state.Load(env.Root())
		if err != nil {
			return nil, err
		}
		p.notice("Lockfile (" + state.FileName + "):")
		p.notice(fmt.Sprintf("  templates_version: %s (current %s)", orNone(lock.TemplatesVersion), scaffold.Version))
		if len(lock.Components) == 0 {
			p.notice("  no component versions recorded")
		}
		for _, name := range lock.ComponentNames() {
			p.add(queryRelease(name, env.KubeContext(), lockReport(name, lock.Components[name])))
		}
	}
	return p, nil
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}

// clusterListed reports whether a provisioner's list output names the cluster.
func clusterListed(tool toolcmd.Tool, name string) func(executor.Result) bool {
	return func(res executor.Result) bool {
		if !res.Success() {
			return false
		}
		if tool == toolcmd.K3d {
			var clusters []struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal([]byte(strings.TrimSpace(res.Stdout)), &clusters); err != nil {
				return false
			}
			for _, c := range clusters {
				if c.Name == name {
					return true
				}
			}
			return false
		}
		for _, line := range strings.Split(res.Stdout, "\n") {
			if strings.TrimSpace(line) == name {
				return true
			}
		}
		return false
	}
}

func decideBootstrap(env Env, r BootstrapRequest) (*Plan, error) {
	provider := r.Provider
	if provider == "" {
		provider = DefaultProvider
	}
	prov, err := toolcmd.LookupProvisioner(provider)
	if err != nil {
		return nil, err
	}
	vf, err := profile.Resolve(r.Profile, profile.InstallProfiles)
	if err != nil {
		return nil, err
	}
	name := r.Name
	if name == "" {
		name = DefaultClusterName
	}

	p := newPlan(OpBootstrap)
	p.Targets = append(p.Targets, name)
	probe := prov.ListClusters()
	p.add(Step{
		Kind:       StepProvision,
		Target:     name,
		Invocation: prov.CreateCluster(name),
		Message:    fmt.Sprintf("Created %s cluster %s.", prov.Tool, name),
		Mutating:   true,
		Probe:      &probe,
		Exists:     clusterListed(prov.Tool, name),
	})
	kubeContext := prov.KubeContext(name)
	p.add(Step{
		Kind:       StepUseContext,
		Target:     kubeContext,
		Invocation: toolcmd.KubectlUseContext(kubeContext),
		Message:    fmt.Sprintf("Switched to context %s.", kubeContext),
		Mutating:   true,
	})
	if r.Install {
		values := resolveValues(env, p, vf)
		addInstalls(p, catalog.DefaultInstallSet(), toolcmd.Options{ValuesFile: values, KubeContext: kubeContext, DryRun: env.DryRun()})
	}
	return p, nil
}

func decideUpdate(env Env, r UpdateRequest) (*Plan, error) {
	infra, template := r.scope()
	var comps []catalog.Component
	if r.Component != "" {
		c, err := catalog.Lookup(r.Component)
		if err != nil {
			return nil, err
		}
		comps = []catalog.Component{c}
	} else if infra {
		comps = catalog.DefaultDestroySet()
	}
	if template && env.Config() == nil {
		return nil, errConfigMissing()
	}

	p := newPlan(OpUpdate)
	for _, c := range comps {
		p.Targets = append(p.Targets, c.Key)
		p.add(Step{Kind: StepInstalledVersion, Target: c.Key, Invocation: update.InstalledQuery(c, env.KubeContext())})
		p.add(Step{Kind: StepAvailableVersion, Target: c.Key, Invocation: update.AvailableQuery(c)})
	}
	if len(comps) > 0 {
		reconcile := Step{Kind: StepReconcile, Message: "report components with a newer chart"}
		if r.Apply {
			reconcile.Message = "helm upgrade --install follows for each component with a newer chart; downgrades are skipped"
			reconcile.Mutating = true
		}
		p.add(reconcile)
	}
	if template {
		if err := decideTemplates(env, r, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// decideTemplates compares the managed files on disk with freshly rendered
// ones and the recorded templates marker with the current one.
func decideTemplates(env Env, r UpdateRequest, p *Plan) error {
	lock, err := state.Load(env.Root())
	if err != nil {
		return err
	}
	if lock.TemplatesVersion == "" {
		p.notice("No templates recorded in " + state.FileName + "; run `meshstack generate` first.")
		return nil
	}
	files, err := scaffold.New(*env.Config(), env.Registry()).Managed()
	if err != nil {
		return err
	}
	diff, err := scaffold.Diff(env.Root(), files)
	if err != nil {
		return err
	}
	info := update.CheckTemplates(lock.TemplatesVersion, scaffold.Version)
	if info == nil && diff == "" {
		p.notice("Templates are up to date.")
		return nil
	}
	if info != nil {
		p.notice(fmt.Sprintf("templates: %s -> %s (%s)", info.Current, info.Latest, info.Delta))
	}
	if diff != "" && (!r.Apply || env.DryRun()) {
		p.notice(diff)
	}
	if r.Apply {
		p.add(Step{Kind: StepRewrite, Target: "templates", Message: "Templates updated.", Files: files, Mutating: true})
	}
	return nil
}

// decideUpgrades turns checker results into upgrade steps, skipping downgrades.
func decideUpgrades(env Env, infos []*update.Info) (*Plan, error) {
	p := newPlan(OpUpdate)
	for _, info := range infos {
		c, err := catalog.Lookup(info.Name)
		if err != nil {
			return nil, err
		}
		if !info.Applicable() {
			p.warn(fmt.Sprintf("skipping %s: available %s is older than installed %s", c.Key, info.Latest, info.Current))
			continue
		}
		p.Targets = append(p.Targets, c.Key)
		p.add(Step{
			Kind:       StepUpgrade,
			Target:     c.Key,
			Invocation: toolcmd.HelmUpgradeInstall(c.Release(), c.Chart, toolcmd.Options{KubeContext: env.KubeContext()}),
			Message:    fmt.Sprintf("Upgraded %s to %s.", c.Key, info.Latest),
			Mutating:   true,
		})
	}
	return p, nil
}
