package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentalyr/simple-timer-card/internal/mqtt"
	"github.com/sentalyr/simple-timer-card/internal/provider"
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

type syncedFixture struct {
	store  *Synced
	client *mqtt.FakeClient
	states *provider.FakeStates
}

func newSyncedFixture(t *testing.T, compat string) *syncedFixture {
	client := mqtt.NewFakeClient()
	states := provider.NewFakeStates()
	store := NewSynced(SyncedOptions{
		Client:       client,
		States:       states,
		Topic:        "simple_timer_card/timers",
		StateTopic:   "simple_timer_card/timers/state",
		SensorEntity: "sensor.timer_card",
		Compat:       compat,
		CacheDir:     t.TempDir(),
	})
	return &syncedFixture{store: store, client: client, states: states}
}

func (f *syncedFixture) setRemote(lastUpdated int64, records ...timer.Record) {
	items := make([]any, 0, len(records))
	data, _ := json.Marshal(records)
	json.Unmarshal(data, &items)
	f.states.Set("sensor.timer_card", provider.EntityState{
		State: "ok",
		Attributes: map[string]any{
			"timers":      items,
			"lastUpdated": float64(lastUpdated),
		},
		LastUpdated: time.Now(),
	})
}

func TestSyncedLoadFromRemote(t *testing.T) {
	f := newSyncedFixture(t, "")
	f.setRemote(1_760_000_000_000, timer.Record{ID: "a", EndTs: timer.I64(1_760_000_300_000)})

	got := f.store.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.False(t, f.store.ShadowActive())
}

func TestSyncedShadowMasksStaleRemote(t *testing.T) {
	f := newSyncedFixture(t, "")
	f.setRemote(1_760_000_000_000)

	// Local create: the shadow now holds the new timer.
	f.store.Save([]timer.Record{{ID: "new", EndTs: timer.I64(1_760_000_300_000)}})
	require.True(t, f.store.ShadowActive())

	// The remote echo has not arrived; a stale read must not revert the
	// mutation.
	got := f.store.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
	assert.True(t, f.store.ShadowActive())
}

func TestSyncedShadowClearedByTimestampCatchUp(t *testing.T) {
	f := newSyncedFixture(t, "")
	f.store.Save([]timer.Record{{ID: "new"}})
	require.True(t, f.store.ShadowActive())

	// Remote echo with a lastUpdated at or past the shadow write.
	f.setRemote(time.Now().UnixMilli()+1000, timer.Record{ID: "new"})
	f.store.Load()
	assert.False(t, f.store.ShadowActive())
}

func TestSyncedShadowClearedByMembership(t *testing.T) {
	f := newSyncedFixture(t, "")
	f.store.Save([]timer.Record{{ID: "new"}})

	// Stale timestamp, but every shadowed id is present remotely.
	f.setRemote(1, timer.Record{ID: "new"}, timer.Record{ID: "other"})
	got := f.store.Load()
	assert.False(t, f.store.ShadowActive())
	assert.Len(t, got, 2, "cleared shadow exposes the full remote list")
}

func TestSyncedSaveCompatEnvelope(t *testing.T) {
	f := newSyncedFixture(t, "2.1.1")
	f.store.Save([]timer.Record{{ID: "a"}})

	msgs := f.client.OnTopic("simple_timer_card/timers")
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Retained)

	var env map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &env))
	assert.Contains(t, env, "timers")
	assert.EqualValues(t, 1, env["version"])
	assert.Contains(t, env, "lastUpdated")

	state := f.client.OnTopic("simple_timer_card/timers/state")
	require.Len(t, state, 1)
	var sp map[string]any
	require.NoError(t, json.Unmarshal(state[0].Payload, &sp))
	assert.EqualValues(t, 1, sp["version"])
}

func TestSyncedSaveLatestBareArray(t *testing.T) {
	f := newSyncedFixture(t, "latest")
	f.store.Save([]timer.Record{{ID: "a"}})

	msgs := f.client.OnTopic("simple_timer_card/timers")
	require.Len(t, msgs, 1)
	var bare []map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &bare))
	require.Len(t, bare, 1)
	assert.Equal(t, "a", bare[0]["id"])
}

func TestSyncedPublishFailureKeepsShadow(t *testing.T) {
	f := newSyncedFixture(t, "")
	f.client.PublishError = assert.AnError

	f.store.Save([]timer.Record{{ID: "a"}})
	assert.True(t, f.store.ShadowActive(), "failed publish must not roll back the shadow")

	got := f.store.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestSyncedCacheSurvivesRemoteReadFailure(t *testing.T) {
	f := newSyncedFixture(t, "")
	f.setRemote(time.Now().UnixMilli(), timer.Record{ID: "a"})
	require.Len(t, f.store.Load(), 1)

	// Remote goes away and the shadow is long cleared: the cache mirror
	// still answers.
	f.states.Remove("sensor.timer_card")
	got := f.store.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestSyncedUpdateAndRemove(t *testing.T) {
	f := newSyncedFixture(t, "")
	f.store.Save([]timer.Record{{ID: "a"}, {ID: "b"}})

	f.store.Update("a", func(r *timer.Record) { r.Paused = true; r.RemainingMs = timer.I64(1000) })
	got := f.store.Load()
	require.Len(t, got, 2)

	f.store.Remove("b")
	got = f.store.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.True(t, got[0].Paused)
}
