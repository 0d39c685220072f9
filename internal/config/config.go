// Package config loads and validates the card's declarative options.
// The file is YAML, read through viper so env overrides work
// (TIMERCARD_* variables).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Entity configures one timer source.
type Entity struct {
	Entity string `mapstructure:"entity"`
	// Mode selects the parser; "auto" (or empty) detects from the entity
	// id and attributes.
	Mode  string `mapstructure:"mode"`
	Name  string `mapstructure:"name"`
	Icon  string `mapstructure:"icon"`
	Color string `mapstructure:"color"`

	MinutesAttr     string `mapstructure:"minutes_attr"`
	StartTimeEntity string `mapstructure:"start_time_entity"`
	StartTimeAttr   string `mapstructure:"start_time_attr"`

	AudioEnabled            *bool   `mapstructure:"audio_enabled"`
	AudioFileURL            *string `mapstructure:"audio_file_url"`
	AudioRepeatCount        *int    `mapstructure:"audio_repeat_count"`
	AudioPlayUntilDismissed *bool   `mapstructure:"audio_play_until_dismissed"`
}

// Pinned configures a template timer preset.
type Pinned struct {
	ID              string `mapstructure:"id"`
	Name            string `mapstructure:"name"`
	Icon            string `mapstructure:"icon"`
	Color           string `mapstructure:"color"`
	Duration        any    `mapstructure:"duration"`
	ExpiredSubtitle string `mapstructure:"expired_subtitle"`

	AudioEnabled            *bool   `mapstructure:"audio_enabled"`
	AudioFileURL            *string `mapstructure:"audio_file_url"`
	AudioRepeatCount        *int    `mapstructure:"audio_repeat_count"`
	AudioPlayUntilDismissed *bool   `mapstructure:"audio_play_until_dismissed"`
}

// MQTT configures the synced backend and event sink.
type MQTT struct {
	Broker       string `mapstructure:"broker"`
	Topic        string `mapstructure:"topic"`
	StateTopic   string `mapstructure:"state_topic"`
	EventsTopic  string `mapstructure:"events_topic"`
	SensorEntity string `mapstructure:"sensor_entity"`
	// StatesPrefix is the topic prefix the entity-state mirror follows.
	StatesPrefix string `mapstructure:"states_prefix"`
	// ServiceTopic carries outgoing service invocations.
	ServiceTopic string `mapstructure:"service_topic"`
}

// Config is the full options surface reaching the core. Unknown keys in
// the file are ignored.
type Config struct {
	Entities []Entity `mapstructure:"entities"`

	Storage           string `mapstructure:"storage"`
	StorageNamespace  string `mapstructure:"storage_namespace"`
	CompatibilityMode string `mapstructure:"compatibility_mode"`
	DataDir           string `mapstructure:"data_dir"`

	MQTT MQTT `mapstructure:"mqtt"`

	DefaultTimerEntity string `mapstructure:"default_timer_entity"`
	DefaultTimerIcon   string `mapstructure:"default_timer_icon"`
	DefaultTimerColor  string `mapstructure:"default_timer_color"`

	SnoozeDuration float64 `mapstructure:"snooze_duration"`

	ExpireAction  string `mapstructure:"expire_action"`
	ExpireKeepFor int    `mapstructure:"expire_keep_for"`

	AudioEnabled            bool   `mapstructure:"audio_enabled"`
	AudioFileURL            string `mapstructure:"audio_file_url"`
	AudioRepeatCount        int    `mapstructure:"audio_repeat_count"`
	AudioPlayUntilDismissed bool   `mapstructure:"audio_play_until_dismissed"`
	AudioCompletionDelay    int    `mapstructure:"audio_completion_delay"`

	SortBy    string `mapstructure:"sort_by"`
	SortOrder string `mapstructure:"sort_order"`

	PinnedTimers []Pinned `mapstructure:"pinned_timers"`

	ExpiredSubtitle             string `mapstructure:"expired_subtitle"`
	DefaultNewTimerDurationMins int    `mapstructure:"default_new_timer_duration_mins"`

	VoiceControlEntity string `mapstructure:"voice_pe_control_entity"`
}

// Load reads the options file (path may be empty for defaults-only) and
// applies defaults and normalization.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TIMERCARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage", "")
	v.SetDefault("storage_namespace", "default")
	v.SetDefault("compatibility_mode", "2.1.1")
	v.SetDefault("data_dir", "timer-card.db")
	v.SetDefault("default_timer_icon", "mdi:timer-outline")
	v.SetDefault("default_timer_color", "var(--primary-color)")
	v.SetDefault("snooze_duration", 5)
	v.SetDefault("expire_action", "keep")
	v.SetDefault("expire_keep_for", 120)
	v.SetDefault("audio_enabled", false)
	v.SetDefault("audio_repeat_count", 1)
	v.SetDefault("audio_completion_delay", 4)
	v.SetDefault("sort_by", "time_left")
	v.SetDefault("sort_order", "asc")
	v.SetDefault("default_new_timer_duration_mins", 15)
	v.SetDefault("mqtt.topic", "simple_timer_card/timers")
	v.SetDefault("mqtt.state_topic", "simple_timer_card/timers/state")
	v.SetDefault("mqtt.events_topic", "simple_timer_card/events")
	v.SetDefault("mqtt.states_prefix", "homeassistant/states")
	v.SetDefault("mqtt.service_topic", "simple_timer_card/service")
}

// Normalize resolves the storage mode and clamps enumerated options to
// their valid sets. Storage auto-detects to "mqtt" when any MQTT channel
// is configured, otherwise "local".
func (c *Config) Normalize() {
	requested := strings.ToLower(c.Storage)
	hasMQTT := c.MQTT.Broker != "" || c.MQTT.SensorEntity != ""
	switch requested {
	case "local", "mqtt":
		c.Storage = requested
	default:
		if hasMQTT {
			c.Storage = "mqtt"
		} else {
			c.Storage = "local"
		}
	}

	switch c.ExpireAction {
	case "keep", "dismiss", "remove":
	default:
		c.ExpireAction = "keep"
	}
	if c.ExpireKeepFor <= 0 {
		c.ExpireKeepFor = 120
	}

	if c.SortBy != "name" {
		c.SortBy = "time_left"
	}
	if c.SortOrder != "desc" {
		c.SortOrder = "asc"
	}

	if c.StorageNamespace == "" {
		if c.DefaultTimerEntity != "" {
			c.StorageNamespace = c.DefaultTimerEntity
		} else {
			c.StorageNamespace = "default"
		}
	}

	if c.AudioRepeatCount < 1 {
		c.AudioRepeatCount = 1
	}
	if c.AudioCompletionDelay < 0 {
		c.AudioCompletionDelay = 4
	}
	if c.DefaultNewTimerDurationMins <= 0 {
		c.DefaultNewTimerDurationMins = 15
	}
}

// EntityConfig returns the configuration block for an entity id, nil
// when the entity is not configured.
func (c *Config) EntityConfig(entityID string) *Entity {
	if entityID == "" {
		return nil
	}
	for i := range c.Entities {
		if c.Entities[i].Entity == entityID {
			return &c.Entities[i]
		}
	}
	return nil
}

// SyncedSink reports whether lifecycle events have somewhere to go.
func (c *Config) SyncedSink() bool {
	return c.Storage == "mqtt" || strings.HasPrefix(c.DefaultTimerEntity, "sensor.")
}
