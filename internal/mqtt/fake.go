package mqtt

import (
	"strings"
	"sync"
)

// Message records one published message for test assertions.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

// FakeClient records published messages and lets tests inject inbound
// messages to subscribed handlers.
type FakeClient struct {
	mu sync.Mutex

	// Published contains all messages sent through Publish.
	Published []Message

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Connected controls the return value of IsConnected.
	Connected bool

	// Closed tracks if Close was called.
	Closed bool

	// Subscriptions lists the topic filters passed to Subscribe, in order.
	Subscriptions []string

	handlers map[string][]func(topic string, payload []byte)
}

// NewFakeClient creates a connected FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Connected: true,
		handlers:  make(map[string][]func(topic string, payload []byte)),
	}
}

// Publish records the message.
func (f *FakeClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Published = append(f.Published, Message{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

// Subscribe registers the handler.
func (f *FakeClient) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Subscriptions = append(f.Subscriptions, topic)
	f.handlers[topic] = append(f.handlers[topic], handler)
	return nil
}

// Deliver invokes handlers whose subscription filter matches the topic,
// applying the + and # wildcard rules.
func (f *FakeClient) Deliver(topic string, payload []byte) {
	f.mu.Lock()
	var handlers []func(string, []byte)
	for filter, hs := range f.handlers {
		if filterMatches(filter, topic) {
			handlers = append(handlers, hs...)
		}
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(topic, payload)
	}
}

func filterMatches(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")
	for i, part := range fp {
		if part == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if part != "+" && part != tp[i] {
			return false
		}
	}
	return len(fp) == len(tp)
}

// IsConnected reports the fake connection state.
func (f *FakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// OnTopic returns published messages matching a topic.
func (f *FakeClient) OnTopic(topic string) []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Message
	for _, m := range f.Published {
		if m.Topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// Reset clears recorded messages.
func (f *FakeClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Published = nil
	f.PublishError = nil
}
