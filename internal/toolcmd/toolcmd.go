// Package toolcmd builds argument vectors for the external tools meshstack drives.
// Builders are pure: the same inputs always produce the same vector, which is what
// both execution and preview print.
package toolcmd

import (
	"fmt"
	"strings"
)

// Tool names an external executable.
type Tool string

const (
	// Helm is the chart installer.
	Helm Tool = "helm"
	// Docker is the container build tool.
	Docker Tool = "docker"
	// Kubectl is the cluster API client.
	Kubectl Tool = "kubectl"
	// Kind provisions local clusters in Docker.
	Kind Tool = "kind"
	// K3d provisions local k3s clusters in Docker.
	K3d Tool = "k3d"
)

// Invocation is a fully resolved external command.
type Invocation struct {
	Tool Tool
	Args []string
}

// String renders the invocation as "<tool> <args...>".
func (i Invocation) String() string {
	if len(i.Args) == 0 {
		return string(i.Tool)
	}
	return string(i.Tool) + " " + strings.Join(i.Args, " ")
}

// Options carries the per-invocation choices that decorate a chart command.
type Options struct {
	// ValuesFile is passed via --values when non-empty.
	ValuesFile string
	// KubeContext is passed via --kube-context when non-empty.
	KubeContext string
	// DryRun adds the chart tool's own --dry-run flag where supported.
	DryRun bool
}

// HelmInstall builds: install <release> <chart> [--dry-run] [--kube-context <ctx>] [--values <file>].
func HelmInstall(release, chart string, opts Options) Invocation {
	args := []string{"install", release, chart}
	if opts.DryRun {
		args = append(args, "--dry-run")
	}
	args = appendKubeContext(args, opts.KubeContext)
	args = appendValues(args, opts.ValuesFile)
	return Invocation{Tool: Helm, Args: args}
}

// HelmUpgradeInstall builds: upgrade --install <release> <path> [--kube-context <ctx>] [--values <file>].
func HelmUpgradeInstall(release, path string, opts Options) Invocation {
	args := []string{"upgrade", "--install", release, path}
	args = appendKubeContext(args, opts.KubeContext)
	args = appendValues(args, opts.ValuesFile)
	return Invocation{Tool: Helm, Args: args}
}

// HelmUninstall builds: uninstall <release> [--kube-context <ctx>].
func HelmUninstall(release string, opts Options) Invocation {
	args := appendKubeContext([]string{"uninstall", release}, opts.KubeContext)
	return Invocation{Tool: Helm, Args: args}
}

// HelmList builds: list --filter <filter> --output json [--kube-context <ctx>].
func HelmList(filter, kubeContext string) Invocation {
	args := appendKubeContext([]string{"list", "--filter", filter, "--output", "json"}, kubeContext)
	return Invocation{Tool: Helm, Args: args}
}

// HelmSearchRepo builds: search repo <chart> --output json.
func HelmSearchRepo(chart string) Invocation {
	return Invocation{Tool: Helm, Args: []string{"search", "repo", chart, "--output", "json"}}
}

// HelmVersion builds: version.
func HelmVersion() Invocation {
	return Invocation{Tool: Helm, Args: []string{"version"}}
}

// ImageRef returns <registry>/<name>:latest.
func ImageRef(registry, name string) string {
	return fmt.Sprintf("%s/%s:latest", registry, name)
}

// DockerBuild builds: build -t <registry>/<name>:latest <path>.
func DockerBuild(registry, name, path string) Invocation {
	return Invocation{Tool: Docker, Args: []string{"build", "-t", ImageRef(registry, name), path}}
}

// DockerPush builds: push <registry>/<name>:latest.
func DockerPush(registry, name string) Invocation {
	return Invocation{Tool: Docker, Args: []string{"push", ImageRef(registry, name)}}
}

// KubectlClusterInfo builds: cluster-info [--context <ctx>].
func KubectlClusterInfo(kubeContext string) Invocation {
	args := []string{"cluster-info"}
	if kubeContext != "" {
		args = append(args, "--context", kubeContext)
	}
	return Invocation{Tool: Kubectl, Args: args}
}

// KubectlUseContext builds: config use-context <ctx>.
func KubectlUseContext(kubeContext string) Invocation {
	return Invocation{Tool: Kubectl, Args: []string{"config", "use-context", kubeContext}}
}

func appendKubeContext(args []string, kubeContext string) []string {
	if kubeContext == "" {
		return args
	}
	return append(args, "--kube-context", kubeContext)
}

func appendValues(args []string, valuesFile string) []string {
	if valuesFile == "" {
		return args
	}
	return append(args, "--values", valuesFile)
}
