package dispatcher

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btmesh-io/btmesh-operator/internal/bus"
	"github.com/btmesh-io/btmesh-operator/internal/bus/fake"
	"github.com/btmesh-io/btmesh-operator/internal/roster"
	"github.com/btmesh-io/btmesh-operator/internal/wire"
)

func TestPublishGatewaysPublishesToEachGatewayInOrder(t *testing.T) {
	client := fake.New()
	b := bus.New(client)
	r := roster.New()
	r.Replace([]string{"gw1", "gw2"})

	d := New(b, r, "fleet")
	d.PublishGateways(context.Background(), wire.ProvisionCommand("ab12cd"))

	pubs := client.Publishes()
	require.Len(t, pubs, 2)
	assert.Equal(t, "command/fleet/gw1/btmesh", pubs[0].Topic)
	assert.Equal(t, "command/fleet/gw2/btmesh", pubs[1].Topic)

	var cmd wire.Command
	require.NoError(t, json.Unmarshal(pubs[0].Payload, &cmd))
	require.NotNil(t, cmd.Command.Provision)
	assert.Equal(t, "ab12cd", cmd.Command.Provision.Device)
}

func TestPublishGatewaysContinuesPastFailure(t *testing.T) {
	client := fake.New()
	client.SetPublishError(assertErr{})
	b := bus.New(client)
	r := roster.New()
	r.Replace([]string{"gw1"})

	d := New(b, r, "fleet")
	assert.NotPanics(t, func() {
		d.PublishGateways(context.Background(), wire.ResetCommand("d1", 0x1234))
	})
}

type assertErr struct{}

func (assertErr) Error() string { return "publish failed" }
