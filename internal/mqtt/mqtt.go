// Package mqtt provides MQTT publish/subscribe with abstraction for
// testing. The synced storage backend, the entity-state mirror and the
// lifecycle event publisher all share one client.
package mqtt

// Client is the broker connection used by the card.
type Client interface {
	// Publish sends a message. Returns error if publishing fails
	// (should not crash the session).
	Publish(topic string, qos byte, retained bool, payload []byte) error

	// Subscribe registers a handler for a topic filter. Retained
	// messages are replayed on subscribe per broker semantics.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}
