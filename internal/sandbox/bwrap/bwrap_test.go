//go:build linux

package bwrap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcpadre/mcpadre/internal/sandbox"
)

func TestBuildArgs_DisabledReturnsNotOk(t *testing.T) {
	s := New(sandbox.FinalizedConfig{Enabled: false})

	_, _, ok := s.BuildArgs("echo", []string{"hi"})
	require.False(t, ok)
}

func TestBuildArgs_NoNetworkingUnsharesNet(t *testing.T) {
	s := New(sandbox.FinalizedConfig{Enabled: true, Networking: false})

	executable, args, ok := s.BuildArgs("echo", []string{"hi"})
	require.True(t, ok)
	require.Equal(t, "bwrap", executable)
	require.Contains(t, args, "--unshare-net")
}

func TestBuildArgs_NetworkingOmitsUnshareNet(t *testing.T) {
	s := New(sandbox.FinalizedConfig{Enabled: true, Networking: true})

	_, args, ok := s.BuildArgs("echo", []string{"hi"})
	require.True(t, ok)
	require.NotContains(t, args, "--unshare-net")
}

func TestBuildArgs_MountsAndTrailingCommand(t *testing.T) {
	s := New(sandbox.FinalizedConfig{
		Enabled:        true,
		AllowRead:      []string{"/usr/bin"},
		AllowReadWrite: []string{"/tmp/work"},
	})

	_, args, ok := s.BuildArgs("node", []string{"server.js"})
	require.True(t, ok)
	require.Contains(t, args, "/usr/bin")
	require.Contains(t, args, "/tmp/work")

	last3 := args[len(args)-3:]
	require.Equal(t, []string{"--", "node", "server.js"}, last3)
}
