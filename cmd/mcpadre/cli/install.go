package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mcpadre/mcpadre/internal/envmanager"
	"github.com/mcpadre/mcpadre/internal/lockfile"
	"github.com/mcpadre/mcpadre/internal/logging"
	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/runner"
	"github.com/mcpadre/mcpadre/internal/settings"
	"github.com/mcpadre/mcpadre/internal/template"
)

var (
	installForce        bool
	installSkipGitignore bool
)

// installCmd is the core's thin collaborator surface: it drives
// ensurePrerequisites/detectDrift/materialize for every configured server
// under the per-server lock (spec.md §6). The interactive `server add` flow,
// gitignore management, and host-config generation are external collaborator
// concerns this command does not implement; --skip-gitignore is accepted and
// ignored here for CLI-surface compatibility with that collaborator.
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Materialize every configured server's environment to CREATE or UPGRADE",
	Args:  cobra.NoArgs,
	RunE:  installServers,
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().BoolVar(&installForce, "force", false, "force UPGRADE even when an implicit upgrade is not allowed")
	installCmd.Flags().BoolVar(&installSkipGitignore, "skip-gitignore", false, "accepted for CLI compatibility; gitignore management is out of core scope")
}

func installServers(cmd *cobra.Command, args []string) error {
	env := environMap(os.Environ())

	workspaceDir, err := resolveWorkspaceDir(env)
	if err != nil {
		return &mcpadreerr.ConfigInvalid{Detail: err.Error()}
	}

	wc, err := settings.LoadWorkspaceContext(workspaceDir, env)
	if err != nil {
		return &mcpadreerr.ConfigInvalid{Detail: err.Error()}
	}

	logger, closeLog, err := logging.New(logging.Options{Level: logLevel, LogDir: wc.Dirs.Log})
	if err != nil {
		return fmt.Errorf("install: building logger: %w", err)
	}

	defer closeLog()

	ctx := context.Background()

	for name, spec := range wc.Settings.Servers {
		err = installOne(ctx, wc, name, spec, env)
		if err != nil {
			return err
		}

		logger.Info("installed server", "server", name)
	}

	return nil
}

func installOne(ctx context.Context, wc *settings.WorkspaceContext, name string, spec settings.ServerSpec, parentEnv map[string]string) error {
	serverDir := wc.Dirs.ServerDir(name)

	err := os.MkdirAll(serverDir, 0o755)
	if err != nil {
		return fmt.Errorf("install: creating %s: %w", serverDir, err)
	}

	lock, err := lockfile.AcquireExclusive(filepath.Join(serverDir, ".mcpadre.lock"))
	if err != nil {
		return fmt.Errorf("install: acquiring lock for %q: %w", name, err)
	}

	defer lock.Release()

	templateCtx := template.Context{Dirs: wc.Dirs, ParentEnv: parentEnv}

	manager, err := runner.BuildManager(name, spec, wc.Dirs, templateCtx, runner.VersionManagers{
		Node:   wc.Settings.Options.NodeVersionManager,
		Python: wc.Settings.Options.PythonVersionManager,
	})
	if err != nil {
		return err
	}

	err = manager.EnsurePrerequisites(ctx)
	if err != nil {
		return err
	}

	allowUpgrade := wc.Settings.Options.InstallImplicitlyUpgradesChangedPackages
	if spec.InstallImplicitlyUpgradesChangedPackages != nil {
		allowUpgrade = *spec.InstallImplicitlyUpgradesChangedPackages
	}

	drift, err := manager.DetectDrift(ctx, envmanager.MaterializeOptions{
		AllowImplicitUpgrade: allowUpgrade,
		Force:                installForce,
	})
	if err != nil {
		return err
	}

	return manager.Materialize(ctx, drift)
}
