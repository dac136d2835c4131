package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcpadre/mcpadre/internal/dirs"
	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/settings"
)

func newWorkspace(t *testing.T, servers map[string]settings.ServerSpec) *settings.WorkspaceContext {
	t.Helper()

	workspaceDir := t.TempDir()

	env := map[string]string{"HOME": t.TempDir()}

	dirResolver, err := dirs.New(dirs.KindProject, workspaceDir, env)
	require.NoError(t, err)

	return &settings.WorkspaceContext{
		Dirs: dirResolver,
		Settings: settings.Settings{
			Servers: servers,
			Options: settings.GlobalOptions{DisableAllSandboxes: true},
		},
	}
}

func TestRun_UnknownServerFails(t *testing.T) {
	wc := newWorkspace(t, nil)

	_, err := Run(context.Background(), wc, Options{ServerName: "ghost"})
	require.Error(t, err)

	var unknown *mcpadreerr.ServerUnknown
	require.ErrorAs(t, err, &unknown)
}

func TestResolveSandbox_NodeVariantAddsServerDirToAllowReadWrite(t *testing.T) {
	servers := map[string]settings.ServerSpec{
		"fetch": {Kind: settings.VariantNode, Node: &settings.NodeSpec{Package: "fetch-mcp", Version: "1.0.0"}},
	}
	wc := newWorkspace(t, servers)
	wc.Settings.Options.DisableAllSandboxes = false

	serverDir := wc.Dirs.ServerDir("fetch")
	require.NoError(t, os.MkdirAll(serverDir, 0o755))

	finalized, err := resolveSandbox("fetch", servers["fetch"], wc, nil)
	require.NoError(t, err)

	canonical, err := filepath.EvalSymlinks(serverDir)
	require.NoError(t, err)
	require.Contains(t, finalized.AllowReadWrite, canonical)
}

func TestResolveSandbox_ShellVariantDoesNotAddServerDir(t *testing.T) {
	servers := map[string]settings.ServerSpec{
		"echoer": {Kind: settings.VariantShell, Shell: &settings.ShellSpec{Command: "cat"}},
	}
	wc := newWorkspace(t, servers)
	wc.Settings.Options.DisableAllSandboxes = false

	finalized, err := resolveSandbox("echoer", servers["echoer"], wc, nil)
	require.NoError(t, err)
	require.NotContains(t, finalized.AllowReadWrite, wc.Dirs.ServerDir("echoer"))
}

func TestRun_ShellVariantEchoesClientInputToStdout(t *testing.T) {
	servers := map[string]settings.ServerSpec{
		"echoer": {Kind: settings.VariantShell, Shell: &settings.ShellSpec{Command: "cat"}},
	}
	wc := newWorkspace(t, servers)

	var stdout bytes.Buffer

	exitCode, err := Run(context.Background(), wc, Options{
		ServerName: "echoer",
		ParentEnv:  map[string]string{"PATH": "/usr/bin:/bin"},
		Stdin:      strings.NewReader(`{"id":1,"method":"ping"}` + "\n"),
		Stdout:     &stdout,
		Stderr:     &bytes.Buffer{},
	})
	require.NoError(t, err)
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout.String(), `"method":"ping"`)
}
