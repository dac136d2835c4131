// Package node implements the Node environment manager (spec.md §4.3.1):
// a package.json pinned to one exact dependency version, installed with
// pnpm (preferred) or npm (fallback).
package node

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mcpadre/mcpadre/internal/envmanager"
	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/settings"
	"github.com/mcpadre/mcpadre/internal/template"
	"github.com/mcpadre/mcpadre/internal/versionmanager"
)

// packageJSON is the minimal on-disk shape this manager writes/reads: one
// pinned dependency, named after the server directory.
type packageJSON struct {
	Name         string            `json:"name"`
	Private      bool              `json:"private"`
	Dependencies map[string]string `json:"dependencies"`
}

// Manager implements envmanager.Manager for a Node-based server.
type Manager struct {
	ServerName         string
	Spec               *settings.NodeSpec
	Dir                string
	Env                map[string]template.EnvTemplate
	TemplateCtx        template.Context
	VersionManagerMode settings.VersionManagerMode
}

var _ envmanager.Manager = (*Manager)(nil)

const packageJSONName = "package.json"

// EnsurePrerequisites verifies node is on PATH, then pnpm; installs pnpm via
// `npm install -g pnpm` if missing, then reshims it under the configured
// version manager, per spec.md §4.2 and §4.3's common contract.
func (m *Manager) EnsurePrerequisites(ctx context.Context) error {
	_, err := exec.LookPath("node")
	if err != nil {
		return &mcpadreerr.PrereqMissing{Runtime: "node", Detail: err.Error()}
	}

	_, err = exec.LookPath("pnpm")
	if err == nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, "npm", "install", "-g", "pnpm")

	out, err := cmd.CombinedOutput()
	if err != nil {
		return &mcpadreerr.PrereqInstallFailed{Helper: "pnpm", Detail: strings.TrimSpace(string(out))}
	}

	var whichPath *string
	if p, lookErr := exec.LookPath("pnpm"); lookErr == nil {
		whichPath = &p
	}

	action, err := versionmanager.DetermineReshimAction(m.VersionManagerMode, whichPath)
	if err != nil {
		return &mcpadreerr.PrereqInstallFailed{Helper: "pnpm", Detail: err.Error()}
	}

	err = versionmanager.Reshim(ctx, action, "node")
	if err != nil {
		return &mcpadreerr.PrereqInstallFailed{Helper: "pnpm", Detail: err.Error()}
	}

	return nil
}

// DetectDrift compares the on-disk package.json's pinned version against
// m.Spec.Version.
func (m *Manager) DetectDrift(_ context.Context, opts envmanager.MaterializeOptions) (envmanager.Drift, error) {
	path := filepath.Join(m.Dir, packageJSONName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return envmanager.Drift{Action: mcpadreerr.ActionCreate}, nil
	}

	if err != nil {
		return envmanager.Drift{}, fmt.Errorf("node: reading %s: %w", path, err)
	}

	var pkg packageJSON

	err = json.Unmarshal(data, &pkg)
	if err != nil {
		return envmanager.Drift{}, fmt.Errorf("node: parsing %s: %w", path, err)
	}

	pinned := pkg.Dependencies[m.Spec.Package]
	changed := pinned != m.Spec.Version

	var changes []string
	if changed {
		changes = append(changes, fmt.Sprintf("Package version: %s@%s → %s@%s", m.Spec.Package, pinned, m.Spec.Package, m.Spec.Version))
	}

	return envmanager.Drift{
		Action:  envmanager.DecideAction(changed, opts.AllowImplicitUpgrade, opts.Force),
		Changes: changes,
	}, nil
}

// Materialize writes package.json and runs pnpm/npm install.
func (m *Manager) Materialize(ctx context.Context, drift envmanager.Drift) error {
	if drift.Action == mcpadreerr.ActionSkip {
		return nil
	}

	err := os.MkdirAll(m.Dir, 0o755)
	if err != nil {
		return fmt.Errorf("node: creating %s: %w", m.Dir, err)
	}

	pkg := packageJSON{
		Name:         fmt.Sprintf("mcpadre-deps-%s", m.ServerName),
		Private:      true,
		Dependencies: map[string]string{m.Spec.Package: m.Spec.Version},
	}

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("node: encoding package.json: %w", err)
	}

	err = os.WriteFile(filepath.Join(m.Dir, packageJSONName), append(data, '\n'), 0o644)
	if err != nil {
		return fmt.Errorf("node: writing package.json: %w", err)
	}

	manager := "pnpm"
	if _, lookErr := exec.LookPath("pnpm"); lookErr != nil {
		manager = "npm"
	}

	cmd := exec.CommandContext(ctx, manager, "install")
	cmd.Dir = m.Dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return &mcpadreerr.InstallFailed{Step: manager + " install", Detail: strings.TrimSpace(string(out))}
	}

	return nil
}

// BuildLaunch execs the installed package's bin entry via `pnpm exec` (or
// `npm exec` fallback), per spec.md §4.3.1.
func (m *Manager) BuildLaunch(_ context.Context) (envmanager.Launch, error) {
	env, err := template.ResolveEnvMap(m.Env, m.TemplateCtx)
	if err != nil {
		return envmanager.Launch{}, err
	}

	manager := "pnpm"
	if _, lookErr := exec.LookPath("pnpm"); lookErr != nil {
		manager = "npm"
	}

	return envmanager.Launch{
		Program: manager,
		Args:    []string{"exec", m.Spec.Package},
		Cwd:     m.Dir,
		Env:     env,
	}, nil
}
