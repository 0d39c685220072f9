package status

import (
	"encoding/json"
	"time"

	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Timers        []TimerJSON `json:"timers"`
	TickCount     int64       `json:"tick_count"`
	LastTick      string      `json:"last_tick,omitempty"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Config        ConfigJSON  `json:"config"`
}

// TimerJSON is the JSON representation of one derived timer.
type TimerJSON struct {
	ID           string       `json:"id"`
	Source       string       `json:"source"`
	SourceEntity string       `json:"source_entity,omitempty"`
	Label        string       `json:"label,omitempty"`
	Name         string       `json:"name,omitempty"`
	Icon         string       `json:"icon,omitempty"`
	Color        string       `json:"color,omitempty"`
	State        string       `json:"state"`
	Remaining    int64        `json:"remaining_ms"`
	Duration     int64        `json:"duration_ms"`
	Percent      float64      `json:"percent"`
	Paused       bool         `json:"paused,omitempty"`
	Idle         bool         `json:"idle,omitempty"`
	Finished     bool         `json:"finished,omitempty"`
	PinnedID     string       `json:"pinned_id,omitempty"`
	Supports     SupportsJSON `json:"supports"`
}

// SupportsJSON is the JSON representation of a capability set.
type SupportsJSON struct {
	Pause  bool `json:"pause"`
	Cancel bool `json:"cancel"`
	Snooze bool `json:"snooze"`
	Extend bool `json:"extend"`
}

// MQTTStatus reports MQTT connection and shadow state.
type MQTTStatus struct {
	Connected    bool   `json:"connected"`
	Broker       string `json:"broker"`
	ShadowActive bool   `json:"shadow_active"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs       int64  `json:"tick_ms"`
	Storage      string `json:"storage"`
	Namespace    string `json:"namespace"`
	Topic        string `json:"topic,omitempty"`
	HTTPAddr     string `json:"http_addr"`
	ExpireAction string `json:"expire_action"`
}

// BuildTimer maps one derived timer to its JSON form.
func BuildTimer(t timer.Timer) TimerJSON {
	return TimerJSON{
		ID:           t.ID,
		Source:       string(t.Record.Source),
		SourceEntity: t.SourceEntity,
		Label:        t.Label,
		Name:         t.Name,
		Icon:         t.Icon,
		Color:        t.Color,
		State:        string(t.State),
		Remaining:    t.Remaining,
		Duration:     t.Duration(),
		Percent:      t.Percent,
		Paused:       t.Paused,
		Idle:         t.Idle,
		Finished:     t.Finished,
		PinnedID:     t.PinnedID,
		Supports: SupportsJSON{
			Pause:  t.Supports.Pause,
			Cancel: t.Supports.Cancel,
			Snooze: t.Supports.Snooze,
			Extend: t.Supports.Extend,
		},
	}
}

func buildInner(snap Snapshot) StatusInner {
	timers := make([]TimerJSON, 0, len(snap.Timers))
	for _, t := range snap.Timers {
		timers = append(timers, BuildTimer(t))
	}
	inner := StatusInner{
		Timers:        timers,
		TickCount:     snap.TickCount,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected:    snap.MQTTConnected,
			Broker:       snap.Config.Broker,
			ShadowActive: snap.ShadowActive,
		},
		Config: ConfigJSON{
			TickMs:       snap.Config.TickMs,
			Storage:      snap.Config.Storage,
			Namespace:    snap.Config.Namespace,
			Topic:        snap.Config.Topic,
			HTTPAddr:     snap.Config.HTTPAddr,
			ExpireAction: snap.Config.ExpireAction,
		},
	}
	if !snap.LastTick.IsZero() {
		inner.LastTick = snap.LastTick.UTC().Format(time.RFC3339)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
