// Package runner implements the top-level `run <server>` orchestration
// (spec.md §4.8): load config, resolve the server's environment manager,
// bring its directory to SYNC, resolve the sandbox, and attach the pipeline.
package runner

import (
	"fmt"

	"github.com/mcpadre/mcpadre/internal/dirs"
	"github.com/mcpadre/mcpadre/internal/envmanager"
	"github.com/mcpadre/mcpadre/internal/envmanager/container"
	"github.com/mcpadre/mcpadre/internal/envmanager/node"
	"github.com/mcpadre/mcpadre/internal/envmanager/python"
	"github.com/mcpadre/mcpadre/internal/envmanager/shell"
	"github.com/mcpadre/mcpadre/internal/settings"
	"github.com/mcpadre/mcpadre/internal/template"
)

// VersionManagers carries the globally-configured reshim mode for each base
// runtime (spec.md §4.2); BuildManager hands each the one its variant needs.
type VersionManagers struct {
	Node   settings.VersionManagerMode
	Python settings.VersionManagerMode
}

// BuildManager dispatches spec.Kind to the matching environment-manager
// implementation, matching the tagged union by field, not by runtime type
// lookup.
func BuildManager(name string, spec settings.ServerSpec, dirResolver *dirs.Resolver, templateCtx template.Context, vm VersionManagers) (envmanager.Manager, error) {
	serverDir := dirResolver.ServerDir(name)

	switch spec.Kind {
	case settings.VariantNode:
		return &node.Manager{
			ServerName:        name,
			Spec:              spec.Node,
			Dir:               serverDir,
			Env:               spec.Env,
			TemplateCtx:       templateCtx,
			VersionManagerMode: vm.Node,
		}, nil
	case settings.VariantPython:
		return &python.Manager{
			ServerName:        name,
			Spec:              spec.Python,
			Dir:               serverDir,
			Env:               spec.Env,
			TemplateCtx:       templateCtx,
			VersionManagerMode: vm.Python,
		}, nil
	case settings.VariantContainer:
		return &container.Manager{
			ServerName:  name,
			Spec:        spec.Container,
			Dir:         serverDir,
			Env:         spec.Env,
			TemplateCtx: templateCtx,
		}, nil
	case settings.VariantShell:
		return &shell.Manager{
			ServerName:  name,
			Spec:        spec.Shell,
			Dir:         serverDir,
			Env:         spec.Env,
			TemplateCtx: templateCtx,
		}, nil
	case settings.VariantHTTP:
		return &shell.HTTPManager{
			ServerName:  name,
			Spec:        spec.HTTP,
			TemplateCtx: templateCtx,
		}, nil
	default:
		return nil, fmt.Errorf("runner: server %q has no recognized variant", name)
	}
}
