package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Storage)
	assert.Equal(t, "default", cfg.StorageNamespace)
	assert.Equal(t, "2.1.1", cfg.CompatibilityMode)
	assert.Equal(t, "keep", cfg.ExpireAction)
	assert.Equal(t, 120, cfg.ExpireKeepFor)
	assert.Equal(t, "time_left", cfg.SortBy)
	assert.Equal(t, "asc", cfg.SortOrder)
	assert.Equal(t, float64(5), cfg.SnoozeDuration)
	assert.Equal(t, 4, cfg.AudioCompletionDelay)
	assert.Equal(t, 15, cfg.DefaultNewTimerDurationMins)
	assert.Equal(t, "simple_timer_card/timers", cfg.MQTT.Topic)
	assert.Equal(t, "simple_timer_card/service", cfg.MQTT.ServiceTopic)
	assert.False(t, cfg.SyncedSink())
}

func TestLoadFullFile(t *testing.T) {
	path := writeConfig(t, `
storage: mqtt
expire_action: remove
sort_by: name
sort_order: desc
snooze_duration: 9
mqtt:
  broker: tcp://broker:1883
  sensor_entity: sensor.timer_card
entities:
  - entity: timer.kitchen
    name: Kitchen
  - entity: sensor.oven
    mode: minutes_attr
    minutes_attr: cook_time_remaining
pinned_timers:
  - id: tea
    name: Tea
    duration: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mqtt", cfg.Storage)
	assert.Equal(t, "remove", cfg.ExpireAction)
	assert.Equal(t, "name", cfg.SortBy)
	assert.Equal(t, "desc", cfg.SortOrder)
	assert.Equal(t, float64(9), cfg.SnoozeDuration)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	require.Len(t, cfg.Entities, 2)
	assert.Equal(t, "minutes_attr", cfg.Entities[1].Mode)
	require.Len(t, cfg.PinnedTimers, 1)
	assert.True(t, cfg.SyncedSink())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNormalizeStorageAutoDetect(t *testing.T) {
	cfg := &Config{}
	cfg.Normalize()
	assert.Equal(t, "local", cfg.Storage)

	cfg = &Config{MQTT: MQTT{Broker: "tcp://broker:1883"}}
	cfg.Normalize()
	assert.Equal(t, "mqtt", cfg.Storage)

	cfg = &Config{MQTT: MQTT{SensorEntity: "sensor.timer_card"}}
	cfg.Normalize()
	assert.Equal(t, "mqtt", cfg.Storage)

	// An explicit choice wins over detection.
	cfg = &Config{Storage: "local", MQTT: MQTT{Broker: "tcp://broker:1883"}}
	cfg.Normalize()
	assert.Equal(t, "local", cfg.Storage)
}

func TestNormalizeClampsEnums(t *testing.T) {
	cfg := &Config{
		ExpireAction:         "explode",
		SortBy:               "color",
		SortOrder:            "sideways",
		ExpireKeepFor:        -1,
		AudioRepeatCount:     0,
		AudioCompletionDelay: -2,
	}
	cfg.Normalize()

	assert.Equal(t, "keep", cfg.ExpireAction)
	assert.Equal(t, "time_left", cfg.SortBy)
	assert.Equal(t, "asc", cfg.SortOrder)
	assert.Equal(t, 120, cfg.ExpireKeepFor)
	assert.Equal(t, 1, cfg.AudioRepeatCount)
	assert.Equal(t, 4, cfg.AudioCompletionDelay)
}

func TestNormalizeNamespaceFallsBackToEntity(t *testing.T) {
	cfg := &Config{DefaultTimerEntity: "input_text.kitchen_timers"}
	cfg.Normalize()
	assert.Equal(t, "input_text.kitchen_timers", cfg.StorageNamespace)

	cfg = &Config{}
	cfg.Normalize()
	assert.Equal(t, "default", cfg.StorageNamespace)
}

func TestEntityConfigLookup(t *testing.T) {
	cfg := &Config{Entities: []Entity{
		{Entity: "timer.kitchen", Name: "Kitchen"},
		{Entity: "sensor.oven"},
	}}

	e := cfg.EntityConfig("timer.kitchen")
	require.NotNil(t, e)
	assert.Equal(t, "Kitchen", e.Name)
	assert.Nil(t, cfg.EntityConfig("timer.unknown"))
	assert.Nil(t, cfg.EntityConfig(""))
}

func TestSyncedSink(t *testing.T) {
	cfg := &Config{Storage: "mqtt"}
	assert.True(t, cfg.SyncedSink())

	cfg = &Config{DefaultTimerEntity: "sensor.timer_card"}
	assert.True(t, cfg.SyncedSink())

	cfg = &Config{Storage: "local", DefaultTimerEntity: "input_text.timers"}
	assert.False(t, cfg.SyncedSink())
}
