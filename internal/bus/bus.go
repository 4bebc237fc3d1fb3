// Package bus adapts the operator's MQTT transport to the shapes the
// reconciler, dispatcher, and ingester need: a bounded channel of
// inbound messages (§4.G) instead of the underlying client's
// callback-based Subscribe, and small QoS/topic conventions for
// publishing commands.
package bus

import (
	"context"
	"fmt"

	"github.com/btmesh-io/btmesh-operator/pkg/log"
	"github.com/btmesh-io/btmesh-operator/pkg/mqtt"
)

// receiverBuffer is the bounded receive-stream capacity named in §4.G
// and §5's backpressure model: on overflow, messages are dropped and
// compensated by the next periodic sweep.
const receiverBuffer = 100

// Message is one inbound message handed to the ingester.
type Message struct {
	Topic   string
	Payload []byte
}

// Bus wraps an mqtt.Client with the bounded-channel receive model the
// operator's loops are built against.
type Bus struct {
	client mqtt.Client
}

// New wraps an already-constructed mqtt.Client.
func New(client mqtt.Client) *Bus {
	return &Bus{client: client}
}

// Start connects the underlying client.
func (b *Bus) Start(ctx context.Context) error {
	return b.client.Start(ctx)
}

// Disconnect closes the underlying client.
func (b *Bus) Disconnect(ctx context.Context) {
	b.client.Disconnect(ctx)
}

// AwaitConnection blocks until the transport is connected.
func (b *Bus) AwaitConnection(ctx context.Context) error {
	return b.client.AwaitConnection(ctx)
}

// PublishCommand publishes payload to the given gateway's command
// topic at QoS 1, the fixed QoS named in §4.D.
func (b *Bus) PublishCommand(ctx context.Context, application, gateway string, payload []byte) error {
	topic := CommandTopic(application, gateway)
	if err := b.client.Publish(ctx, topic, 1, false, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers on the application event topic (derived from
// application/groupID per §4.F) and returns a bounded channel of
// inbound messages. If the subscription itself fails to register, it
// returns a nil channel and the error; callers should treat a failed Subscribe as fatal
// to the ingestion loop, matching the malformed-envelope policy of
// terminating ingestion on transport-level failure to establish the
// stream.
func (b *Bus) Subscribe(ctx context.Context, application, groupID string) (<-chan Message, error) {
	topic := EventTopic(application, groupID)
	out := make(chan Message, receiverBuffer)

	handler := func(_ context.Context, topic string, payload []byte) {
		msg := Message{Topic: topic, Payload: payload}
		select {
		case out <- msg:
		default:
			log.Warn("dropping inbound message, receiver buffer full", "topic", topic)
		}
	}

	if err := b.client.Subscribe(ctx, topic, 1, handler); err != nil {
		close(out)
		return nil, fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return out, nil
}
