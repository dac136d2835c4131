package template

import (
	"testing"

	"github.com/mcpadre/mcpadre/internal/dirs"
	"github.com/stretchr/testify/require"
)

func testCtx(t *testing.T) Context {
	t.Helper()

	resolver, err := dirs.New(dirs.KindProject, "/home/user/project", map[string]string{"HOME": "/home/user"})
	require.NoError(t, err)

	return Context{Dirs: resolver, ParentEnv: map[string]string{"FOO": "bar"}}
}

func TestResolveString_DirsToken(t *testing.T) {
	ctx := testCtx(t)

	got, err := ResolveString("{{dirs.workspace}}/sub", ctx)
	require.NoError(t, err)
	require.Equal(t, "/home/user/project/sub", got)
}

func TestResolveString_ParentEnvMissingYieldsEmpty(t *testing.T) {
	ctx := testCtx(t)

	got, err := ResolveString("{{parentEnv.NOPE}}", ctx)
	require.NoError(t, err)
	require.Equal(t, "", got)
}

func TestResolveString_ParentEnvPresent(t *testing.T) {
	ctx := testCtx(t)

	got, err := ResolveString("{{parentEnv.FOO}}", ctx)
	require.NoError(t, err)
	require.Equal(t, "bar", got)
}

func TestResolveString_UnknownDirsTokenFails(t *testing.T) {
	ctx := testCtx(t)

	_, err := ResolveString("{{dirs.nope}}", ctx)
	require.Error(t, err)
}

func TestResolvePathTemplates_DropsEmptyResults(t *testing.T) {
	ctx := testCtx(t)

	out, err := ResolvePathTemplates([]PathTemplate{
		"{{dirs.home}}",
		"{{parentEnv.MISSING}}",
		"{{dirs.workspace}}",
	}, ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"/home/user", "/home/user/project"}, out)
}
