package engine

// Operation names a top-level meshstack operation.
type Operation string

const (
	OpInstall   Operation = "install"
	OpDeploy    Operation = "deploy"
	OpDestroy   Operation = "destroy"
	OpStatus    Operation = "status"
	OpBootstrap Operation = "bootstrap"
	OpUpdate    Operation = "update"
)

// Request is the resolved user input for one operation.
type Request interface {
	Operation() Operation
}

// InstallRequest installs one component, or the default set when Component is empty.
type InstallRequest struct {
	Component string
	Profile   string
}

// DeployRequest builds, pushes and deploys one service, or all of them.
type DeployRequest struct {
	Service string
	// Environment selects the values overlay.
	Environment string
	Build       bool
	Push        bool
}

// DestroyRequest uninstalls services and components.
type DestroyRequest struct {
	Service   string
	Component string
	// Full selects every discovered service and every catalog component.
	Full    bool
	Confirm bool
}

// StatusRequest reports installed releases. With no selector set, everything is shown.
type StatusRequest struct {
	Components bool
	Services   bool
	Lockfile   bool
}

// BootstrapRequest provisions a local cluster and optionally installs the default set into it.
type BootstrapRequest struct {
	Provider string
	Name     string
	Install  bool
	Profile  string
}

// UpdateRequest checks or applies chart and template updates. With neither
// Infra, Template nor Component set, both charts and templates are covered.
type UpdateRequest struct {
	Component string
	Infra     bool
	Template  bool
	Check     bool
	Apply     bool
}

func (InstallRequest) Operation() Operation   { return OpInstall }
func (DeployRequest) Operation() Operation    { return OpDeploy }
func (DestroyRequest) Operation() Operation   { return OpDestroy }
func (StatusRequest) Operation() Operation    { return OpStatus }
func (BootstrapRequest) Operation() Operation { return OpBootstrap }
func (UpdateRequest) Operation() Operation    { return OpUpdate }

// scope returns whether charts and templates are in scope.
func (r UpdateRequest) scope() (infra, template bool) {
	if !r.Infra && !r.Template && r.Component == "" {
		return true, true
	}
	return r.Infra || r.Component != "", r.Template
}

// selectsAll reports whether no selector was given.
func (r StatusRequest) selectsAll() bool {
	return !r.Components && !r.Services && !r.Lockfile
}
