package dirs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_ComputesCanonicalLayout(t *testing.T) {
	r, err := New(KindProject, "/tmp/proj", map[string]string{"HOME": "/home/u"})
	require.NoError(t, err)

	require.Equal(t, "/tmp/proj", r.Workspace)
	require.Equal(t, "/home/u", r.Home)
	require.Equal(t, "/tmp/proj/.mcpadre/data", r.Data)
	require.Equal(t, "/tmp/proj/.mcpadre/cache", r.Cache)
	require.Equal(t, "/tmp/proj/.mcpadre/logs", r.Log)
	require.Equal(t, "/tmp/proj/.mcpadre", r.Config)
	require.Equal(t, "/home/u/.mcpadre", r.User)
}

func TestNew_MCPADRE_USER_DIROverride(t *testing.T) {
	r, err := New(KindProject, "/tmp/proj", map[string]string{"HOME": "/home/u", "MCPADRE_USER_DIR": "/custom/user"})
	require.NoError(t, err)
	require.Equal(t, "/custom/user", r.User)
}

func TestServerDir(t *testing.T) {
	r, err := New(KindProject, "/tmp/proj", map[string]string{"HOME": "/home/u"})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/tmp/proj", ".mcpadre", "servers", "my-server"), r.ServerDir("my-server"))
}

func TestLookup_UnknownToken(t *testing.T) {
	r, err := New(KindProject, "/tmp/proj", map[string]string{"HOME": "/home/u"})
	require.NoError(t, err)

	_, ok := r.Lookup("nonexistent")
	require.False(t, ok)
}

func TestNew_EmptyWorkspaceErrors(t *testing.T) {
	_, err := New(KindProject, "", nil)
	require.Error(t, err)
}
