// Package fake provides an in-memory mqtt.Client for tests, recording
// publishes and letting tests inject inbound messages synchronously,
// grounded on the teacher's hal_mock.go pattern of a drop-in fake
// standing in for a hardware/network collaborator.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/btmesh-io/btmesh-operator/pkg/mqtt"
)

// Publish is one recorded call to Publish.
type Publish struct {
	Topic   string
	QoS     int
	Retain  bool
	Payload []byte
}

// Client is a fake mqtt.Client. All methods are safe for concurrent use.
type Client struct {
	mu sync.Mutex

	started     bool
	publishes   []Publish
	publishErr  error
	subscribers map[string]mqtt.MessageHandler

	connectErr error
}

var _ mqtt.Client = (*Client)(nil)

// New returns a ready-to-use fake client.
func New() *Client {
	return &Client{subscribers: map[string]mqtt.MessageHandler{}}
}

// SetPublishError makes every subsequent Publish call fail with err.
func (c *Client) SetPublishError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishErr = err
}

// SetConnectError makes AwaitConnection and Start fail with err.
func (c *Client) SetConnectError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectErr = err
}

// Publishes returns a copy of every recorded Publish call.
func (c *Client) Publishes() []Publish {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Publish, len(c.publishes))
	copy(out, c.publishes)
	return out
}

// Deliver synchronously invokes the handler registered for topic, as
// if a message had arrived on the bus. Returns false if nothing is
// subscribed to that exact topic.
func (c *Client) Deliver(ctx context.Context, topic string, payload []byte) bool {
	c.mu.Lock()
	handler, ok := c.subscribers[topic]
	c.mu.Unlock()
	if !ok {
		return false
	}
	handler(ctx, topic, payload)
	return true
}

func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return c.connectErr
	}
	c.started = true
	return nil
}

func (c *Client) Disconnect(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
}

func (c *Client) Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return c.publishErr
	}
	c.publishes = append(c.publishes, Publish{Topic: topic, QoS: qos, Retain: retain, Payload: payload})
	return nil
}

func (c *Client) Subscribe(ctx context.Context, topic string, qos int, handler mqtt.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers[topic] = handler
	return nil
}

func (c *Client) Unsubscribe(ctx context.Context, topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.subscribers[topic]; !ok {
		return fmt.Errorf("not subscribed to %s", topic)
	}
	delete(c.subscribers, topic)
	return nil
}

func (c *Client) AwaitConnection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectErr
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}
