package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// RealClient talks to an actual MQTT broker. Publishes attempted while
// disconnected are buffered and replayed on reconnect so a transient
// broker outage does not drop mutations.
type RealClient struct {
	client paho.Client

	mu     sync.Mutex
	buffer *ringBuffer
	subs   []subscription
}

type subscription struct {
	topic   string
	qos     byte
	handler func(topic string, payload []byte)
}

// NewRealClient creates a client connected to the given broker.
func NewRealClient(broker, clientID string) (*RealClient, error) {
	c := &RealClient{buffer: newRingBuffer(256)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(pc paho.Client) {
			c.onConnect(pc)
		})

	c.client = paho.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return c, nil
}

// Publish sends a message, buffering it when disconnected.
func (c *RealClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if !c.client.IsConnected() {
		c.mu.Lock()
		c.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		c.mu.Unlock()
		return fmt.Errorf("not connected, buffered %s", topic)
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Subscribe registers a topic handler, re-registered after reconnects.
func (c *RealClient) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	c.mu.Lock()
	c.subs = append(c.subs, subscription{topic: topic, qos: qos, handler: handler})
	c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, func(_ paho.Client, m paho.Message) {
		handler(m.Topic(), m.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// IsConnected reports the broker connection state.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnected()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}

func (c *RealClient) onConnect(pc paho.Client) {
	c.mu.Lock()
	pending := c.buffer.drainAll()
	subs := make([]subscription, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s := s
		pc.Subscribe(s.topic, s.qos, func(_ paho.Client, m paho.Message) {
			s.handler(m.Topic(), m.Payload())
		})
	}
	for _, m := range pending {
		pc.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}
