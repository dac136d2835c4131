package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnvironMap_SplitsOnFirstEquals(t *testing.T) {
	m := environMap([]string{"PATH=/usr/bin:/bin", "EMPTY=", "WEIRD=a=b=c"})

	require.Equal(t, "/usr/bin:/bin", m["PATH"])
	require.Equal(t, "", m["EMPTY"])
	require.Equal(t, "a=b=c", m["WEIRD"])
}

func TestResolveWorkspaceDir_UserModeUsesUserDirFlag(t *testing.T) {
	userMode = true
	userDir = "/tmp/custom-user-dir"

	defer func() {
		userMode = false
		userDir = ""
	}()

	dir, err := resolveWorkspaceDir(map[string]string{})
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom-user-dir", dir)
}

func TestResolveWorkspaceDir_UserModeFallsBackToHome(t *testing.T) {
	userMode = true

	defer func() { userMode = false }()

	dir, err := resolveWorkspaceDir(map[string]string{"HOME": "/home/tester"})
	require.NoError(t, err)
	require.Equal(t, "/home/tester/.mcpadre", dir)
}
