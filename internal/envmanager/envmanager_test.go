package envmanager

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcpadre/mcpadre/internal/mcpadreerr"
)

func TestDecideAction_Table(t *testing.T) {
	require.Equal(t, mcpadreerr.ActionSync, DecideAction(false, false, false))
	require.Equal(t, mcpadreerr.ActionSync, DecideAction(false, true, true))
	require.Equal(t, mcpadreerr.ActionSkip, DecideAction(true, false, false))
	require.Equal(t, mcpadreerr.ActionUpgrade, DecideAction(true, true, false))
	require.Equal(t, mcpadreerr.ActionUpgrade, DecideAction(true, false, true))
}
