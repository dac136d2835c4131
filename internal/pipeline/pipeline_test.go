package pipeline

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ForwardsRequestAndResponseVerbatim(t *testing.T) {
	clientIn := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}` + "\n")

	var clientOut bytes.Buffer

	childIn := &bytes.Buffer{}
	childOut := strings.NewReader(`{"jsonrpc":"2.0","id":1,"result":{"tools":[]}}` + "\n")

	p := &Pipeline{
		ClientIn:  clientIn,
		ClientOut: &clientOut,
		ChildIn:   childIn,
		ChildOut:  childOut,
	}

	err := p.Run()
	require.NoError(t, err)
	require.Equal(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`+"\n", childIn.String())
	require.Equal(t, `{"jsonrpc":"2.0","id":1,"result":{"tools":[]}}`+"\n", clientOut.String())
}

func TestRun_NotificationHasNoID(t *testing.T) {
	clientIn := strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n")

	childIn := &bytes.Buffer{}

	p := &Pipeline{
		ClientIn:  clientIn,
		ClientOut: io.Discard,
		ChildIn:   childIn,
		ChildOut:  strings.NewReader(""),
	}

	err := p.Run()
	require.NoError(t, err)
	require.Contains(t, childIn.String(), "notifications/initialized")
}

func TestRun_MalformedJSONPassesThroughUnchanged(t *testing.T) {
	clientIn := strings.NewReader(`not json at all` + "\n")

	childIn := &bytes.Buffer{}

	p := &Pipeline{
		ClientIn:  clientIn,
		ClientOut: io.Discard,
		ChildIn:   childIn,
		ChildOut:  strings.NewReader(""),
	}

	err := p.Run()
	require.NoError(t, err)
	require.Equal(t, "not json at all\n", childIn.String())
}
