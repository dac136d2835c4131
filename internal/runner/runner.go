package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mcpadre/mcpadre/internal/command"
	"github.com/mcpadre/mcpadre/internal/envmanager"
	"github.com/mcpadre/mcpadre/internal/lockfile"
	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/pipeline"
	"github.com/mcpadre/mcpadre/internal/sandbox"
	"github.com/mcpadre/mcpadre/internal/settings"
	"github.com/mcpadre/mcpadre/internal/template"
)

// Options carries the per-invocation inputs the 7-step sequence needs beyond
// the already-loaded WorkspaceContext.
type Options struct {
	ServerName string
	ParentEnv  map[string]string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Logger *slog.Logger
}

// Run implements the `run <server>` sequence (spec.md §4.8), strictly
// sequential. It returns the child's exit code on a clean or forwarded exit,
// and a structured mcpadreerr value otherwise (ServerUnknown, NotInstalled,
// SandboxUnavailable, ProcessFailed, ...).
func Run(ctx context.Context, wc *settings.WorkspaceContext, opts Options) (int, error) {
	spec, ok := wc.Settings.Servers[opts.ServerName]
	if !ok {
		return 0, &mcpadreerr.ServerUnknown{Name: opts.ServerName}
	}

	serverDir := wc.Dirs.ServerDir(opts.ServerName)

	err := os.MkdirAll(serverDir, 0o755)
	if err != nil {
		return 0, fmt.Errorf("runner: creating %s: %w", serverDir, err)
	}

	lock, err := lockfile.AcquireShared(filepath.Join(serverDir, ".mcpadre.lock"))
	if err != nil {
		return 0, fmt.Errorf("runner: acquiring lock: %w", err)
	}

	defer lock.Release()

	templateCtx := template.Context{Dirs: wc.Dirs, ParentEnv: opts.ParentEnv}

	manager, err := BuildManager(opts.ServerName, spec, wc.Dirs, templateCtx, VersionManagers{
		Node:   wc.Settings.Options.NodeVersionManager,
		Python: wc.Settings.Options.PythonVersionManager,
	})
	if err != nil {
		return 0, err
	}

	err = manager.EnsurePrerequisites(ctx)
	if err != nil {
		return 0, err
	}

	// run never implicitly upgrades: AllowImplicitUpgrade/Force are always
	// false, so DetectDrift can only yield CREATE, SYNC, or SKIP (spec.md
	// §4.8 step 2 — CREATE/UPGRADE are reserved to install).
	drift, err := manager.DetectDrift(ctx, envmanager.MaterializeOptions{})
	if err != nil {
		return 0, err
	}

	if drift.Action == mcpadreerr.ActionCreate {
		return 0, &mcpadreerr.NotInstalled{Server: opts.ServerName}
	}

	err = manager.Materialize(ctx, drift)
	if err != nil {
		return 0, err
	}

	finalized, err := resolveSandbox(opts.ServerName, spec, wc, opts.ParentEnv)
	if err != nil {
		return 0, err
	}

	impl := sandbox.New(finalized, opts.Logger)

	if finalized.Enabled && !impl.Validate() {
		return 0, &mcpadreerr.SandboxUnavailable{Platform: runtime.GOOS, Detail: "sandbox validation failed"}
	}

	launch, err := manager.BuildLaunch(ctx)
	if err != nil {
		return 0, err
	}

	if spec.Kind == settings.VariantHTTP {
		// The stdio<->HTTP bridge for Http servers is a collaborator outside
		// this core's scope; the pipeline still has a child-shaped source to
		// run against once that bridge is wired in by the caller.
		return 0, fmt.Errorf("runner: http variant requires an external stdio<->HTTP bridge, not yet wired for server %q", opts.ServerName)
	}

	mergedEnv := command.MergeEnv(opts.ParentEnv, launch.Env)

	childStdin, clientWritesToChild := io.Pipe()
	childStdout, childWritesToClient := io.Pipe()

	cmdSpec := command.Spec{
		Program: launch.Program,
		Args:    launch.Args,
		Dir:     launch.Cwd,
		Env:     mergedEnv,
		Sandbox: impl,
		Stdin:   childStdin,
		Stdout:  childWritesToClient,
		Stderr:  opts.Stderr,
		Logger:  opts.Logger,
	}

	type outcomeT struct {
		res command.Result
		err error
	}

	resultCh := make(chan outcomeT, 1)

	go func() {
		res, runErr := command.Run(ctx, cmdSpec)
		childStdout.Close()
		resultCh <- outcomeT{res, runErr}
	}()

	pl := &pipeline.Pipeline{
		ClientIn:   opts.Stdin,
		ClientOut:  opts.Stdout,
		ChildIn:    clientWritesToChild,
		ChildOut:   childStdout,
		LogTraffic: wc.Settings.Options.LogMcpTraffic,
		Logger:     opts.Logger,
	}

	pipelineErr := pl.Run()
	clientWritesToChild.Close()

	outcome := <-resultCh

	if outcome.err != nil {
		if pf, isPF := outcome.err.(*mcpadreerr.ProcessFailed); isPF {
			return pf.ExitCode, outcome.err
		}

		return 1, outcome.err
	}

	if pipelineErr != nil && opts.Logger != nil {
		opts.Logger.Debug("pipeline closed", slog.String("error", pipelineErr.Error()))
	}

	return outcome.res.ExitCode, nil
}

// resolveSandbox merges the per-server sandbox override with the workspace's
// global disable/extra-path options, per spec.md §4.4.
func resolveSandbox(serverName string, spec settings.ServerSpec, wc *settings.WorkspaceContext, parentEnv map[string]string) (sandbox.FinalizedConfig, error) {
	extraRead := make([]string, 0, len(wc.Settings.Options.ExtraAllowRead))
	for _, p := range wc.Settings.Options.ExtraAllowRead {
		extraRead = append(extraRead, string(p))
	}

	extraWrite := make([]string, 0, len(wc.Settings.Options.ExtraAllowWrite))
	for _, p := range wc.Settings.Options.ExtraAllowWrite {
		extraWrite = append(extraWrite, string(p))
	}

	// Node, Python, and Container variants materialize state (node_modules,
	// a venv, a pulled image) under their own server directory; the sandbox
	// must let them read AND write it regardless of omitWorkspacePath (spec.md
	// §3's allowReadWrite-superset invariant).
	switch spec.Kind {
	case settings.VariantNode, settings.VariantPython, settings.VariantContainer:
		extraWrite = append(extraWrite, wc.Dirs.ServerDir(serverName))
	}

	return sandbox.Resolve(spec.Sandbox, wc.Dirs, parentEnv, sandbox.Options{
		DisableAllSandboxes:       wc.Settings.Options.DisableAllSandboxes,
		ExtraAllowRead:            extraRead,
		ExtraAllowWrite:           extraWrite,
		StrictUnsupportedPlatform: wc.Settings.Options.StrictUnsupportedPlatform,
	})
}
