package provider

import (
	"encoding/json"
	"fmt"

	"github.com/sentalyr/simple-timer-card/internal/mqtt"
)

// MQTTCaller publishes service invocations as JSON onto a command
// topic, where an automation on the platform side executes them. Calls
// are fire-and-forget; a failed publish is the caller's to log and
// swallow.
type MQTTCaller struct {
	client mqtt.Client
	topic  string
}

// NewMQTTCaller returns a Caller publishing to the given topic.
func NewMQTTCaller(client mqtt.Client, topic string) *MQTTCaller {
	return &MQTTCaller{client: client, topic: topic}
}

type serviceCall struct {
	Domain  string         `json:"domain"`
	Service string         `json:"service"`
	Data    map[string]any `json:"service_data,omitempty"`
}

// Invoke implements Caller.
func (c *MQTTCaller) Invoke(domain, service string, args map[string]any) error {
	body, err := json.Marshal(serviceCall{Domain: domain, Service: service, Data: args})
	if err != nil {
		return fmt.Errorf("marshal service call %s.%s: %w", domain, service, err)
	}
	return c.client.Publish(c.topic, 0, false, body)
}
