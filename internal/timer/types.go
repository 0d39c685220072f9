// Package timer defines the canonical timer model shared by the source
// parsers, storage backends and the tick engine. This package has NO
// external dependencies. Time is always injectable via time.Time or
// epoch-millisecond parameters.
package timer

// Source identifies the external origin of a timer record. It determines
// which mutation paths and storage backend apply.
type Source string

const (
	// SourceNative is a platform timer entity (timer.*).
	SourceNative Source = "timer"
	// SourceVoice is a voice-assistant timer with a text control channel.
	SourceVoice Source = "voice_pe"
	// SourceHelper is a JSON blob stored in a text helper entity.
	SourceHelper Source = "helper"
	// SourceTimestamp is a sensor whose state is an absolute end timestamp.
	SourceTimestamp Source = "timestamp"
	// SourceMinutes is a numeric "minutes remaining" attribute.
	SourceMinutes Source = "minutes_attr"
	// SourceAlexa is a smart-speaker timer aggregate.
	SourceAlexa Source = "alexa"
	// SourceLocal is the card's own browser-local style persisted store.
	SourceLocal Source = "local"
	// SourceSynced is the MQTT-synchronized store.
	SourceSynced Source = "mqtt"
	// SourceTemplate is a configured pinned preset, materialized as an
	// idle startable placeholder.
	SourceTemplate Source = "template"
)

// State is the derived lifecycle state of a timer.
type State string

const (
	StateIdle     State = "idle"
	StateActive   State = "active"
	StatePaused   State = "paused"
	StateFinished State = "finished"
	StateExpired  State = "expired"
)

// Supports declares which mutation commands are legal for a timer.
// Read-only sources expose none.
type Supports struct {
	Pause  bool `json:"pause"`
	Cancel bool `json:"cancel"`
	Snooze bool `json:"snooze"`
	Extend bool `json:"extend"`
}

// DefaultSupports returns the capability whitelist for a source, used
// when a parser does not supply an explicit capability set.
func DefaultSupports(s Source) Supports {
	switch s {
	case SourceHelper, SourceLocal, SourceSynced, SourceNative:
		return Supports{Pause: true, Cancel: true, Snooze: true, Extend: true}
	case SourceAlexa:
		return Supports{Cancel: true, Snooze: true}
	default:
		return Supports{}
	}
}

// AudioOverride carries per-timer audio settings. Pointers distinguish
// "unset" from an explicit false/zero so the resolution precedence
// (timer > entity config > global) works.
type AudioOverride struct {
	Enabled            *bool   `json:"audio_enabled,omitempty"`
	FileURL            *string `json:"audio_file_url,omitempty"`
	RepeatCount        *int    `json:"audio_repeat_count,omitempty"`
	PlayUntilDismissed *bool   `json:"audio_play_until_dismissed,omitempty"`
}

// HasOverride reports whether any audio field is set.
func (a AudioOverride) HasOverride() bool {
	return a.Enabled != nil || a.FileURL != nil || a.RepeatCount != nil || a.PlayUntilDismissed != nil
}

// Record is a raw timer as produced by a source parser or loaded from a
// storage backend. Wall-clock anchors are epoch milliseconds; nil means
// absent. Exactly one of EndTs or RemainingMs is authoritative depending
// on Paused.
type Record struct {
	ID           string    `json:"id"`
	Source       Source    `json:"source,omitempty"`
	SourceEntity string    `json:"source_entity,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	Label        string    `json:"label,omitempty"`
	Name         string    `json:"name,omitempty"`
	Icon         string    `json:"icon,omitempty"`
	Color        string    `json:"color,omitempty"`
	DurationMs   *int64    `json:"duration,omitempty"`
	StartTs      *int64    `json:"start_ts,omitempty"`
	EndTs        *int64    `json:"end_ts,omitempty"`
	RemainingMs  *int64    `json:"remaining_ms,omitempty"`
	Paused       bool      `json:"paused,omitempty"`
	Idle         bool      `json:"idle,omitempty"`
	Finished     bool      `json:"finished,omitempty"`
	FinishedAt   *int64    `json:"finishedAt,omitempty"`
	ExpiredAt    *int64    `json:"expiredAt,omitempty"`
	State        string    `json:"state,omitempty"`
	Supports     *Supports `json:"supports,omitempty"`

	PinnedID        string `json:"pinned_id,omitempty"`
	ExpiredSubtitle string `json:"expired_subtitle,omitempty"`
	TemplatePreset  string `json:"template_preset,omitempty"`

	VoiceTimerID  string `json:"voice_pe_timer_id,omitempty"`
	ControlEntity string `json:"control_entity,omitempty"`

	AudioEnabled            *bool   `json:"audio_enabled,omitempty"`
	AudioFileURL            *string `json:"audio_file_url,omitempty"`
	AudioRepeatCount        *int    `json:"audio_repeat_count,omitempty"`
	AudioPlayUntilDismissed *bool   `json:"audio_play_until_dismissed,omitempty"`

	// Legacy field spellings still found in old stored payloads. They are
	// migrated to StartTs/EndTs/RemainingMs on load and never written back.
	LegacyStart any      `json:"start,omitempty"`
	LegacyEnd   *float64 `json:"end,omitempty"`
}

// Timer is the canonical, derived-field-complete representation produced
// by the tick engine. Remaining, Percent, State and Supports are
// recomputed every tick and never persisted. The outer State and
// Supports fields shadow the raw stored spellings on the embedded Record.
type Timer struct {
	Record

	Remaining int64
	Percent   float64
	State     State
	Supports  Supports
}

// Override collects the per-timer audio settings.
func (t Record) Override() AudioOverride {
	return AudioOverride{
		Enabled:            t.AudioEnabled,
		FileURL:            t.AudioFileURL,
		RepeatCount:        t.AudioRepeatCount,
		PlayUntilDismissed: t.AudioPlayUntilDismissed,
	}
}

// DisplayName returns the name used for display sorting.
func (t Timer) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Label
}

// Key returns the dedup/dismissal identity, scoped per (sourceRef, id).
func (t Record) Key() string {
	return t.SourceEntity + ":" + t.ID
}

// Duration returns the configured total length, zero when absent.
func (t Record) Duration() int64 {
	if t.DurationMs == nil {
		return 0
	}
	return *t.DurationMs
}

// I64 returns a pointer to v, for building records with optional fields.
func I64(v int64) *int64 { return &v }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }
