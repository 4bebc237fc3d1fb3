package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btmesh-io/btmesh-operator/internal/bus/fake"
)

func TestCommandTopic(t *testing.T) {
	assert.Equal(t, "command/fleet/gw1/btmesh", CommandTopic("fleet", "gw1"))
}

func TestEventTopicExclusive(t *testing.T) {
	assert.Equal(t, "app/fleet", EventTopic("fleet", ""))
}

func TestEventTopicShared(t *testing.T) {
	assert.Equal(t, "$shared/replicas/app/fleet", EventTopic("fleet", "replicas"))
}

func TestPublishCommandUsesQoS1(t *testing.T) {
	client := fake.New()
	b := New(client)

	err := b.PublishCommand(context.Background(), "fleet", "gw1", []byte(`{}`))
	require.NoError(t, err)

	pubs := client.Publishes()
	require.Len(t, pubs, 1)
	assert.Equal(t, "command/fleet/gw1/btmesh", pubs[0].Topic)
	assert.Equal(t, 1, pubs[0].QoS)
}

func TestSubscribeDeliversToChannel(t *testing.T) {
	client := fake.New()
	b := New(client)

	ch, err := b.Subscribe(context.Background(), "fleet", "")
	require.NoError(t, err)

	ok := client.Deliver(context.Background(), "app/fleet", []byte(`{"status":{}}`))
	require.True(t, ok)

	select {
	case msg := <-ch:
		assert.Equal(t, "app/fleet", msg.Topic)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivered message")
	}
}
