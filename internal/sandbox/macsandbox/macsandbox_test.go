//go:build darwin

package macsandbox

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

func TestBuildArgs_EmbedsProfileAndCommand(t *testing.T) {
	s := New(sandbox.FinalizedConfig{Enabled: true, AllowRead: []string{"/usr/bin"}})

	executable, args, ok := s.BuildArgs("node", []string{"server.js"})
	require.True(t, ok)
	require.Equal(t, "sandbox-exec", executable)
	require.Equal(t, "-p", args[0])
	require.Contains(t, args[1], "(deny default)")
	require.Equal(t, "node", args[2])
	require.Equal(t, "server.js", args[3])
}

func TestGenerateProfile_NetworkingAppendsAllowNetwork(t *testing.T) {
	profile := generateProfile(sandbox.FinalizedConfig{Networking: true})
	require.Contains(t, profile, "(allow network*)")
}

func TestGenerateProfile_AllowReadWriteGetsExecClause(t *testing.T) {
	profile := generateProfile(sandbox.FinalizedConfig{AllowReadWrite: []string{"/tmp/work"}})
	require.Contains(t, profile, "process-exec")
}
