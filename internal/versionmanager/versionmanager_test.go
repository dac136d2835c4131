package versionmanager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
	"github.com/mcpadre/mcpadre/internal/settings"
)

func ptr(s string) *string { return &s }

func TestDetermineReshimAction_NoneAndExplicit(t *testing.T) {
	action, err := DetermineReshimAction(settings.VMNone, nil)
	require.NoError(t, err)
	require.Equal(t, ActionNone, action)

	action, err = DetermineReshimAction(settings.VMAsdf, nil)
	require.NoError(t, err)
	require.Equal(t, ActionAsdf, action)

	action, err = DetermineReshimAction(settings.VMMise, nil)
	require.NoError(t, err)
	require.Equal(t, ActionMise, action)
}

func TestDetermineReshimAction_AutoRequiresWhichPath(t *testing.T) {
	_, err := DetermineReshimAction(settings.VMAuto, nil)
	require.Error(t, err)

	var ambiguous *mcpadreerr.VersionManagerAmbiguous
	require.ErrorAs(t, err, &ambiguous)
}

func TestDetermineReshimAction_AutoClassifiesBySubstring(t *testing.T) {
	action, err := DetermineReshimAction(settings.VMAuto, ptr("/home/u/.asdf/shims/node"))
	require.NoError(t, err)
	require.Equal(t, ActionAsdf, action)

	action, err = DetermineReshimAction(settings.VMAuto, ptr("/home/u/.local/share/mise/shims/node"))
	require.NoError(t, err)
	require.Equal(t, ActionMise, action)

	action, err = DetermineReshimAction(settings.VMAuto, ptr("/usr/local/bin/node"))
	require.NoError(t, err)
	require.Equal(t, ActionNone, action)
}

func TestDetermineReshimAction_AutoBothTokensIsAmbiguous(t *testing.T) {
	_, err := DetermineReshimAction(settings.VMAuto, ptr("/home/u/.asdf/installs/mise/shims/node"))
	require.Error(t, err)

	var ambiguous *mcpadreerr.VersionManagerAmbiguous
	require.ErrorAs(t, err, &ambiguous)
}
