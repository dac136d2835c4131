package sandbox

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcpadre/mcpadre/internal/dirs"
	"github.com/mcpadre/mcpadre/internal/settings"
	"github.com/mcpadre/mcpadre/internal/template"
)

func withFakeFS(t *testing.T, existing map[string]bool) {
	t.Helper()

	old := exists
	exists = func(path string) bool { return existing[path] }

	t.Cleanup(func() { exists = old })
}

func TestResolve_DisableAllSandboxesForcesDisabled(t *testing.T) {
	withFakeFS(t, map[string]bool{"/workspace": true})

	resolver, err := dirs.New(dirs.KindProject, "/workspace", map[string]string{"HOME": "/home/u"})
	require.NoError(t, err)

	enabledTrue := true
	cfg, err := Resolve(&settings.SandboxConfig{Enabled: &enabledTrue}, resolver, nil, Options{DisableAllSandboxes: true})
	require.NoError(t, err)
	require.False(t, cfg.Enabled)
}

func TestResolve_AppendsWorkspaceUnlessOmitted(t *testing.T) {
	existing := map[string]bool{"/workspace": true}
	withFakeFS(t, existing)

	resolver, err := dirs.New(dirs.KindProject, "/workspace", map[string]string{"HOME": "/home/u"})
	require.NoError(t, err)

	enabledTrue := true
	cfg, err := Resolve(&settings.SandboxConfig{Enabled: &enabledTrue}, resolver, nil, Options{})
	require.NoError(t, err)
	require.Contains(t, cfg.AllowRead, "/workspace")
}

func TestResolve_OmitWorkspacePathDropsWorkspace(t *testing.T) {
	withFakeFS(t, map[string]bool{"/workspace": true})

	resolver, err := dirs.New(dirs.KindProject, "/workspace", map[string]string{"HOME": "/home/u"})
	require.NoError(t, err)

	enabledTrue := true
	cfg, err := Resolve(&settings.SandboxConfig{Enabled: &enabledTrue, OmitWorkspacePath: true}, resolver, nil, Options{})
	require.NoError(t, err)
	require.NotContains(t, cfg.AllowRead, "/workspace")
}

func TestResolve_DropsNonexistentPaths(t *testing.T) {
	withFakeFS(t, map[string]bool{})

	resolver, err := dirs.New(dirs.KindProject, "/workspace", map[string]string{"HOME": "/home/u"})
	require.NoError(t, err)

	enabledTrue := true
	cfg, err := Resolve(&settings.SandboxConfig{
		Enabled:   &enabledTrue,
		AllowRead: []template.PathTemplate{"/does/not/exist"},
	}, resolver, nil, Options{})
	require.NoError(t, err)
	require.NotContains(t, cfg.AllowRead, "/does/not/exist")
}

func TestResolve_NetworkingAppendsDNSPaths(t *testing.T) {
	withFakeFS(t, map[string]bool{"/etc/resolv.conf": true, "/etc/hosts": true, "/etc/nsswitch.conf": true})

	resolver, err := dirs.New(dirs.KindProject, "/workspace", map[string]string{"HOME": "/home/u"})
	require.NoError(t, err)

	enabledTrue := true
	cfg, err := Resolve(&settings.SandboxConfig{Enabled: &enabledTrue, Networking: true, OmitWorkspacePath: true}, resolver, nil, Options{})
	require.NoError(t, err)
	require.Contains(t, cfg.AllowRead, "/etc/resolv.conf")
}

func TestResolve_NilConfigIsDisabled(t *testing.T) {
	withFakeFS(t, map[string]bool{})

	resolver, err := dirs.New(dirs.KindProject, "/workspace", map[string]string{"HOME": "/home/u"})
	require.NoError(t, err)

	cfg, err := Resolve(nil, resolver, nil, Options{})
	require.NoError(t, err)
	require.False(t, cfg.Enabled)
}
