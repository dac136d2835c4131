// Package shell implements the Shell/Http environment manager (spec.md
// §4.3.4): no on-disk data, no drift, a direct exec of a resolved command
// template. Http is a URL-only descriptor handled the same way at the
// launch-descriptor level; no stdio<->HTTP bridge exists here, and the
// runner returns an error for Http servers instead of starting the pipeline.
package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/mcpadre/mcpadre/internal/envmanager"
	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/settings"
	"github.com/mcpadre/mcpadre/internal/template"
)

// Manager implements envmanager.Manager for the Shell variant.
type Manager struct {
	ServerName  string
	Spec        *settings.ShellSpec
	Dir         string
	Env         map[string]template.EnvTemplate
	TemplateCtx template.Context
}

var _ envmanager.Manager = (*Manager)(nil)

// EnsurePrerequisites is a no-op: the resolved command is whatever the user
// configured, and mcpadre does not vet its availability up front.
func (m *Manager) EnsurePrerequisites(_ context.Context) error {
	return nil
}

// DetectDrift always reports SYNC: there is no on-disk state to drift from.
func (m *Manager) DetectDrift(_ context.Context, _ envmanager.MaterializeOptions) (envmanager.Drift, error) {
	return envmanager.Drift{Action: mcpadreerr.ActionSync}, nil
}

// Materialize is a no-op.
func (m *Manager) Materialize(_ context.Context, _ envmanager.Drift) error {
	return nil
}

// BuildLaunch resolves the command template and splits it into a program
// plus arguments via a plain whitespace split, the way a shell's own
// tokenizer would for an unquoted command line.
func (m *Manager) BuildLaunch(_ context.Context) (envmanager.Launch, error) {
	env, err := template.ResolveEnvMap(m.Env, m.TemplateCtx)
	if err != nil {
		return envmanager.Launch{}, err
	}

	resolved, err := template.ResolveCommand(m.Spec.Command, m.TemplateCtx)
	if err != nil {
		return envmanager.Launch{}, err
	}

	fields := strings.Fields(resolved)
	if len(fields) == 0 {
		return envmanager.Launch{}, fmt.Errorf("shell: server %q resolved to an empty command", m.ServerName)
	}

	return envmanager.Launch{
		Program: fields[0],
		Args:    fields[1:],
		Cwd:     m.Dir,
		Env:     env,
	}, nil
}

// HTTPManager implements envmanager.Manager for the Http variant: it never
// execs a child directly, but still reports SYNC/no-op materialize so the
// runner's 7-step sequence (spec.md §4.8) proceeds uniformly. The core's
// `run` command recognizes Http servers after BuildLaunch and returns an
// error instead of spawning a process; no stdio<->HTTP bridge is wired.
type HTTPManager struct {
	ServerName  string
	Spec        *settings.HTTPSpec
	TemplateCtx template.Context
}

var _ envmanager.Manager = (*HTTPManager)(nil)

func (m *HTTPManager) EnsurePrerequisites(_ context.Context) error {
	return nil
}

func (m *HTTPManager) DetectDrift(_ context.Context, _ envmanager.MaterializeOptions) (envmanager.Drift, error) {
	return envmanager.Drift{Action: mcpadreerr.ActionSync}, nil
}

func (m *HTTPManager) Materialize(_ context.Context, _ envmanager.Drift) error {
	return nil
}

// BuildLaunch carries the URL in Program and resolved headers in Env; there
// is no child process, and the runner special-cases Http before calling
// command.Run.
func (m *HTTPManager) BuildLaunch(_ context.Context) (envmanager.Launch, error) {
	headers, err := template.ResolveEnvMap(m.Spec.Headers, m.TemplateCtx)
	if err != nil {
		return envmanager.Launch{}, err
	}

	return envmanager.Launch{
		Program: m.Spec.URL,
		Env:     headers,
	}, nil
}
