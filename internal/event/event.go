// Package event publishes timer lifecycle notifications over MQTT so
// automations can react to timers starting, expiring and so on.
package event

import (
	"encoding/json"
	"log"

	"github.com/sentalyr/simple-timer-card/internal/mqtt"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// Lifecycle event names.
const (
	Created   = "created"
	Started   = "started"
	Paused    = "paused"
	Resumed   = "resumed"
	Cancelled = "cancelled"
	Snoozed   = "snoozed"
	Dismissed = "dismissed"
	Expired   = "expired"
)

// Payload is the wire form of a lifecycle event. Voice assistant timers
// carry the raw state fields so automations can resolve the device-side
// timer without another lookup.
type Payload struct {
	Event        string `json:"event"`
	Timestamp    int64  `json:"timestamp"`
	ID           string `json:"id"`
	Label        string `json:"label,omitempty"`
	Name         string `json:"name,omitempty"`
	Source       string `json:"source,omitempty"`
	SourceEntity string `json:"source_entity,omitempty"`
	Icon         string `json:"icon,omitempty"`
	Color        string `json:"color,omitempty"`
	Duration     int64  `json:"duration,omitempty"`
	Remaining    int64  `json:"remaining,omitempty"`
	PinnedID     string `json:"pinned_id,omitempty"`
	State        string `json:"state,omitempty"`
	StartTs      *int64 `json:"start_ts,omitempty"`
	EndTs        *int64 `json:"end_ts,omitempty"`
	DurationMs   int64  `json:"duration_ms,omitempty"`
	RemainingMs  *int64 `json:"remaining_ms,omitempty"`
}

// Publisher emits lifecycle events to <topic>/<event>, non-retained.
// A nil Publisher is valid and drops everything, so callers do not have
// to guard for deployments without an event topic.
type Publisher struct {
	client mqtt.Client
	topic  string
	now    func() int64
}

func NewPublisher(client mqtt.Client, topic string, now func() int64) *Publisher {
	if client == nil || topic == "" {
		return nil
	}
	return &Publisher{client: client, topic: topic, now: now}
}

// Emit publishes one lifecycle event for the given timer.
func (p *Publisher) Emit(event string, t timer.Timer) {
	if p == nil {
		return
	}
	pl := Payload{
		Event:        event,
		Timestamp:    p.now(),
		ID:           t.ID,
		Label:        t.Label,
		Name:         t.Name,
		Source:       string(t.Record.Source),
		SourceEntity: t.SourceEntity,
		Icon:         t.Icon,
		Color:        t.Color,
		Duration:     t.Duration(),
		Remaining:    t.Remaining,
		PinnedID:     t.PinnedID,
	}
	if t.Record.Source == timer.SourceVoice {
		pl.State = string(t.State)
		pl.StartTs = t.StartTs
		pl.EndTs = t.EndTs
		pl.DurationMs = t.Duration()
		pl.RemainingMs = t.RemainingMs
	}
	body, err := json.Marshal(pl)
	if err != nil {
		log.Printf("event: marshal %s for %s: %v", event, t.ID, err)
		return
	}
	if err := p.client.Publish(p.topic+"/"+event, 0, false, body); err != nil {
		log.Printf("event: publish %s for %s: %v", event, t.ID, err)
	}
}

// EmitRecord wraps a bare record in a derived-free Timer and emits it.
// Used by mutation paths that act before the next tick derives fields.
func (p *Publisher) EmitRecord(event string, r timer.Record) {
	if p == nil {
		return
	}
	p.Emit(event, timer.Timer{Record: r})
}
