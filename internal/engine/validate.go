package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/afstanton/meshstack/internal/config"
	"github.com/afstanton/meshstack/internal/errs"
	"github.com/afstanton/meshstack/internal/kube"
	"github.com/afstanton/meshstack/internal/scaffold"
	"github.com/afstanton/meshstack/internal/services"
)

// ValidateRequest selects checks. With nothing selected, or Full, every check runs.
type ValidateRequest struct {
	Config   bool
	Cluster  bool
	CI       bool
	Services bool
	Full     bool
}

func (r ValidateRequest) all() bool {
	return r.Full || (!r.Config && !r.Cluster && !r.CI && !r.Services)
}

// Validate runs the selected checks in a fixed order: config, services, CI, cluster.
// The first failing check aborts the rest.
func (o *Orchestrator) Validate(ctx context.Context, req ValidateRequest) error {
	all := req.all()
	o.out.line("Validating project...")

	if all || req.Config {
		if _, err := config.Load(o.env.Root()); err != nil {
			return err
		}
		o.out.success(config.FileName + " is valid.")
	}
	if all || req.Services {
		if err := o.validateServices(); err != nil {
			return err
		}
	}
	if all || req.CI {
		if err := o.validateCI(); err != nil {
			return err
		}
	}
	if all || req.Cluster {
		summary, err := kube.NewClient(o.exec, o.env.KubeContext()).ClusterInfo(ctx)
		if err != nil {
			return err
		}
		o.logger.Debug("cluster-info", "output", summary)
		o.out.success("Connected to Kubernetes cluster successfully.")
	}
	return nil
}

func (o *Orchestrator) validateServices() error {
	svcs, err := services.Discover(o.env.Root())
	if err != nil {
		return err
	}
	if len(svcs) == 0 {
		o.out.line("No services found.")
		return nil
	}
	var problems []string
	for _, s := range svcs {
		if !s.Buildable() {
			problems = append(problems, fmt.Sprintf("%s: missing %s", s.Name, services.Dockerfile))
		}
		if !s.Deployable() {
			problems = append(problems, fmt.Sprintf("%s: missing %s", s.Name, services.ChartFile))
		}
	}
	if len(problems) > 0 {
		return errs.New(errs.ServiceArtifactMissing, "service validation failed:\n  "+strings.Join(problems, "\n  "))
	}
	o.out.success(fmt.Sprintf("%d service(s) are buildable and deployable.", len(svcs)))
	return nil
}

func (o *Orchestrator) validateCI() error {
	cfg, err := config.Load(o.env.Root())
	if err != nil {
		return err
	}
	rel, err := scaffold.CIPath(cfg.CICD)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(filepath.Join(o.env.Root(), filepath.FromSlash(rel)))
	if errors.Is(err, os.ErrNotExist) {
		return errs.Newf(errs.PreconditionFailed, "CI manifest %s not found; run `meshstack generate ci`", rel).WithTarget(rel)
	}
	if err != nil {
		return fmt.Errorf("read CI manifest: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return errs.Wrap(errs.ConfigInvalid, err, "parse "+rel).WithTarget(rel)
	}
	if len(doc) == 0 {
		return errs.Newf(errs.ConfigInvalid, "CI manifest %s is empty", rel).WithTarget(rel)
	}
	o.out.success(fmt.Sprintf("CI manifest %s is valid.", rel))
	return nil
}
