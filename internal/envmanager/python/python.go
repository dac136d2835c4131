// Package python implements the Python environment manager (spec.md
// §4.3.2): a pyproject.toml pinned to one exact dependency version and a
// requires-python expression, installed/synced via uv.
//
// pyproject.toml is serialized with github.com/pelletier/go-toml/v2,
// promoted here from majorcontext-moat's indirect viper/toml stack into a
// direct dependency, since mcpadre writes this file itself rather than just
// reading a user-supplied one.
package python

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/mcpadre/mcpadre/internal/envmanager"
	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/settings"
	"github.com/mcpadre/mcpadre/internal/template"
	"github.com/mcpadre/mcpadre/internal/versionmanager"
)

const pyprojectName = "pyproject.toml"

// pyprojectProject is the [project] table this manager writes.
type pyprojectProject struct {
	Name         string   `toml:"name"`
	RequiresPython string `toml:"requires-python"`
	Dependencies []string `toml:"dependencies"`
}

type pyprojectFile struct {
	Project pyprojectProject `toml:"project"`
}

// Manager implements envmanager.Manager for a Python-based server.
type Manager struct {
	ServerName  string
	Spec        *settings.PythonSpec
	Dir         string
	Env         map[string]template.EnvTemplate
	TemplateCtx template.Context

	// HTTPClient is overridable in tests; defaults to a 10s-timeout client.
	HTTPClient *http.Client
	// PyPIBaseURL is overridable in tests; defaults to the real PyPI JSON API.
	PyPIBaseURL string

	VersionManagerMode settings.VersionManagerMode
}

var _ envmanager.Manager = (*Manager)(nil)

func (m *Manager) httpClient() *http.Client {
	if m.HTTPClient != nil {
		return m.HTTPClient
	}

	return &http.Client{Timeout: 10 * time.Second}
}

// EnsurePrerequisites verifies python3 is present, then uv; installs uv via
// `python3 -m pip install --user uv` if missing, then reshims it under the
// configured version manager, per spec.md §4.2.
func (m *Manager) EnsurePrerequisites(ctx context.Context) error {
	_, err := exec.LookPath("python3")
	if err != nil {
		return &mcpadreerr.PrereqMissing{Runtime: "python3", Detail: err.Error()}
	}

	_, err = exec.LookPath("uv")
	if err == nil {
		return nil
	}

	cmd := exec.CommandContext(ctx, "python3", "-m", "pip", "install", "--user", "uv")

	out, err := cmd.CombinedOutput()
	if err != nil {
		return &mcpadreerr.PrereqInstallFailed{Helper: "uv", Detail: strings.TrimSpace(string(out))}
	}

	var whichPath *string
	if p, lookErr := exec.LookPath("uv"); lookErr == nil {
		whichPath = &p
	}

	action, err := versionmanager.DetermineReshimAction(m.VersionManagerMode, whichPath)
	if err != nil {
		return &mcpadreerr.PrereqInstallFailed{Helper: "uv", Detail: err.Error()}
	}

	err = versionmanager.Reshim(ctx, action, "python")
	if err != nil {
		return &mcpadreerr.PrereqInstallFailed{Helper: "uv", Detail: err.Error()}
	}

	return nil
}

// requiresPythonExpr resolves the requires-python precedence in spec.md
// §4.3.2: explicit spec.pythonVersion first, then PyPI's declared
// requires_python, then the system Python's own major.minor as a floor.
func (m *Manager) requiresPythonExpr(ctx context.Context) (string, error) {
	if m.Spec.PythonVersion != "" {
		return "==" + m.Spec.PythonVersion, nil
	}

	if expr, ok := m.pypiRequiresPython(ctx); ok {
		return expr, nil
	}

	out, err := exec.CommandContext(ctx, "python3", "-c", "import sys; print(f'{sys.version_info[0]}.{sys.version_info[1]}')").Output()
	if err != nil {
		return ">=3", nil
	}

	return ">=" + strings.TrimSpace(string(out)), nil
}

type pypiResponse struct {
	Info struct {
		RequiresPython string `json:"requires_python"`
	} `json:"info"`
}

// pypiRequiresPython queries the PyPI JSON API for the package's declared
// requires_python, returning ok=false on any failure (network, 404, parse).
func (m *Manager) pypiRequiresPython(ctx context.Context) (string, bool) {
	base := m.PyPIBaseURL
	if base == "" {
		base = "https://pypi.org"
	}

	url := fmt.Sprintf("%s/pypi/%s/json", base, m.Spec.Package)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}

	resp, err := m.httpClient().Do(req)
	if err != nil {
		return "", false
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false
	}

	var parsed pypiResponse

	err = json.Unmarshal(body, &parsed)
	if err != nil || parsed.Info.RequiresPython == "" {
		return "", false
	}

	return parsed.Info.RequiresPython, true
}

// DetectDrift compares both the requires-python expression and the pinned
// dependency against pyproject.toml, per spec.md §4.3.2.
func (m *Manager) DetectDrift(ctx context.Context, opts envmanager.MaterializeOptions) (envmanager.Drift, error) {
	path := filepath.Join(m.Dir, pyprojectName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return envmanager.Drift{Action: mcpadreerr.ActionCreate}, nil
	}

	if err != nil {
		return envmanager.Drift{}, fmt.Errorf("python: reading %s: %w", path, err)
	}

	var existing pyprojectFile

	err = toml.Unmarshal(data, &existing)
	if err != nil {
		return envmanager.Drift{}, fmt.Errorf("python: parsing %s: %w", path, err)
	}

	wantExpr, err := m.requiresPythonExpr(ctx)
	if err != nil {
		return envmanager.Drift{}, err
	}

	wantDep := fmt.Sprintf("%s==%s", m.Spec.Package, m.Spec.Version)

	var changes []string

	changed := existing.Project.RequiresPython != wantExpr
	if changed {
		changes = append(changes, fmt.Sprintf("Python version: %s → %s", existing.Project.RequiresPython, wantExpr))
	}

	var oldDep string
	if len(existing.Project.Dependencies) > 0 {
		oldDep = existing.Project.Dependencies[0]
	}

	if oldDep != wantDep {
		changed = true

		changes = append(changes, fmt.Sprintf("Package version: %s → %s", oldDep, wantDep))
	}

	return envmanager.Drift{
		Action:  envmanager.DecideAction(changed, opts.AllowImplicitUpgrade, opts.Force),
		Changes: changes,
	}, nil
}

// Materialize writes pyproject.toml, .python-version, .tool-versions, then
// runs `uv sync`.
func (m *Manager) Materialize(ctx context.Context, drift envmanager.Drift) error {
	if drift.Action == mcpadreerr.ActionSkip {
		return nil
	}

	err := os.MkdirAll(m.Dir, 0o755)
	if err != nil {
		return fmt.Errorf("python: creating %s: %w", m.Dir, err)
	}

	expr, err := m.requiresPythonExpr(ctx)
	if err != nil {
		return err
	}

	pyFile := pyprojectFile{Project: pyprojectProject{
		Name:           fmt.Sprintf("mcpadre-deps-%s", m.ServerName),
		RequiresPython: expr,
		Dependencies:   []string{fmt.Sprintf("%s==%s", m.Spec.Package, m.Spec.Version)},
	}}

	data, err := toml.Marshal(pyFile)
	if err != nil {
		return fmt.Errorf("python: encoding pyproject.toml: %w", err)
	}

	err = os.WriteFile(filepath.Join(m.Dir, pyprojectName), data, 0o644)
	if err != nil {
		return fmt.Errorf("python: writing pyproject.toml: %w", err)
	}

	pythonVersion := m.Spec.PythonVersion
	if pythonVersion == "" {
		pythonVersion = strings.TrimPrefix(strings.TrimPrefix(expr, "=="), ">=")
	}

	err = os.WriteFile(filepath.Join(m.Dir, ".python-version"), []byte(pythonVersion+"\n"), 0o644)
	if err != nil {
		return fmt.Errorf("python: writing .python-version: %w", err)
	}

	err = os.WriteFile(filepath.Join(m.Dir, ".tool-versions"), []byte(fmt.Sprintf("python %s\n", pythonVersion)), 0o644)
	if err != nil {
		return fmt.Errorf("python: writing .tool-versions: %w", err)
	}

	cmd := exec.CommandContext(ctx, "uv", "sync")
	cmd.Dir = m.Dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		return &mcpadreerr.InstallFailed{Step: "uv sync", Detail: strings.TrimSpace(string(out))}
	}

	return nil
}

// BuildLaunch execs the installed package's entry point via `uv run`.
func (m *Manager) BuildLaunch(_ context.Context) (envmanager.Launch, error) {
	env, err := template.ResolveEnvMap(m.Env, m.TemplateCtx)
	if err != nil {
		return envmanager.Launch{}, err
	}

	return envmanager.Launch{
		Program: "uv",
		Args:    []string{"run", m.Spec.Package},
		Cwd:     m.Dir,
		Env:     env,
	}, nil
}
