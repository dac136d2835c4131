package python

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcpadre/mcpadre/internal/envmanager"
	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/settings"
)

func TestDetectDrift_CreateWhenPyprojectAbsent(t *testing.T) {
	m := &Manager{ServerName: "mcp-pypi", Spec: &settings.PythonSpec{Package: "mcp-pypi", Version: "2.6.5", PythonVersion: "3.11.11"}, Dir: t.TempDir()}

	drift, err := m.DetectDrift(context.Background(), envmanager.MaterializeOptions{})
	require.NoError(t, err)
	require.Equal(t, mcpadreerr.ActionCreate, drift.Action)
}

func TestDetectDrift_SyncWhenUnchanged(t *testing.T) {
	dir := t.TempDir()
	spec := &settings.PythonSpec{Package: "mcp-pypi", Version: "2.6.5", PythonVersion: "3.11.11"}

	m := &Manager{ServerName: "mcp-pypi", Spec: spec, Dir: dir}
	require.NoError(t, m.Materialize(context.Background(), envmanager.Drift{Action: mcpadreerr.ActionCreate}))

	drift, err := m.DetectDrift(context.Background(), envmanager.MaterializeOptions{})
	require.NoError(t, err)
	require.Equal(t, mcpadreerr.ActionSync, drift.Action)
}

func TestDetectDrift_SkipLogsBothChangesWhenNotAllowed(t *testing.T) {
	dir := t.TempDir()
	spec := &settings.PythonSpec{Package: "mcp-pypi", Version: "2.6.5", PythonVersion: "3.11.11"}

	m := &Manager{ServerName: "mcp-pypi", Spec: spec, Dir: dir}
	require.NoError(t, m.Materialize(context.Background(), envmanager.Drift{Action: mcpadreerr.ActionCreate}))

	m.Spec = &settings.PythonSpec{Package: "mcp-pypi", Version: "2.6.7", PythonVersion: "3.13.6"}

	drift, err := m.DetectDrift(context.Background(), envmanager.MaterializeOptions{})
	require.NoError(t, err)
	require.Equal(t, mcpadreerr.ActionSkip, drift.Action)
	require.Len(t, drift.Changes, 2)
	require.Contains(t, drift.Changes[0], "==3.11.11 → ==3.13.6")
	require.Contains(t, drift.Changes[1], "mcp-pypi==2.6.5 → mcp-pypi==2.6.7")
}

func TestMaterialize_ForceUpgradeWritesNewPinnedFiles(t *testing.T) {
	dir := t.TempDir()

	m := &Manager{ServerName: "mcp-pypi", Spec: &settings.PythonSpec{Package: "mcp-pypi", Version: "2.6.7", PythonVersion: "3.13.6"}, Dir: dir}

	require.NoError(t, m.Materialize(context.Background(), envmanager.Drift{Action: mcpadreerr.ActionUpgrade}))

	data, err := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	require.NoError(t, err)
	require.Contains(t, string(data), `requires-python = "==3.13.6"`)
	require.Contains(t, string(data), "mcp-pypi==2.6.7")

	versionData, err := os.ReadFile(filepath.Join(dir, ".python-version"))
	require.NoError(t, err)
	require.Equal(t, "3.13.6\n", string(versionData))
}

func TestPypiRequiresPython_FallsBackOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	m := &Manager{Spec: &settings.PythonSpec{Package: "nonexistent"}, HTTPClient: srv.Client(), PyPIBaseURL: srv.URL}

	_, ok := m.pypiRequiresPython(context.Background())
	require.False(t, ok)
}
