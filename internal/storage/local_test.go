package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentalyr/simple-timer-card/internal/timer"
)

func newTestLocal(t *testing.T) *Local {
	return NewLocal(t.TempDir(), "test")
}

func TestLocalEmptyLoad(t *testing.T) {
	l := newTestLocal(t)
	assert.Empty(t, l.Load())
}

func TestLocalSaveLoadRoundTrip(t *testing.T) {
	l := newTestLocal(t)
	l.Save([]timer.Record{
		{ID: "a", Source: timer.SourceLocal, DurationMs: timer.I64(300_000), EndTs: timer.I64(1_760_000_300_000)},
	})

	got := l.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, int64(300_000), got[0].Duration())
}

func TestLocalCorruptSlotClearedNotFatal(t *testing.T) {
	l := newTestLocal(t)
	require.NoError(t, l.d.Write(l.key, []byte("{corrupt")))

	assert.Empty(t, l.Load(), "corrupt slot should read as empty")

	// The slot was erased: a fresh save works and reads back clean.
	l.Save([]timer.Record{{ID: "a"}})
	assert.Len(t, l.Load(), 1)
}

func TestLocalLoadMigratesLegacyFields(t *testing.T) {
	l := newTestLocal(t)
	payload := []byte(`[{"id":"old","start":1760000000000,"end":1760000300000}]`)
	require.NoError(t, l.d.Write(l.key, payload))

	got := l.Load()
	require.Len(t, got, 1)
	require.NotNil(t, got[0].StartTs)
	require.NotNil(t, got[0].EndTs)
	assert.Equal(t, int64(1_760_000_000_000), *got[0].StartTs)
	assert.Equal(t, int64(1_760_000_300_000), *got[0].EndTs)

	// Migration is written back: the raw slot no longer holds legacy keys.
	raw, err := l.d.Read(l.key)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"start":`)
	assert.Contains(t, string(raw), `"start_ts":`)
}

func TestLocalUpdate(t *testing.T) {
	l := newTestLocal(t)
	l.Save([]timer.Record{{ID: "a"}, {ID: "b"}})

	l.Update("b", func(r *timer.Record) {
		r.Paused = true
		r.RemainingMs = timer.I64(5000)
	})

	got := l.Load()
	require.Len(t, got, 2)
	var b timer.Record
	for _, r := range got {
		if r.ID == "b" {
			b = r
		}
	}
	assert.True(t, b.Paused)
	require.NotNil(t, b.RemainingMs)
	assert.Equal(t, int64(5000), *b.RemainingMs)
}

func TestLocalUpdateUnknownIDIsNoop(t *testing.T) {
	l := newTestLocal(t)
	l.Save([]timer.Record{{ID: "a"}})
	l.Update("missing", func(r *timer.Record) { r.Paused = true })
	got := l.Load()
	require.Len(t, got, 1)
	assert.False(t, got[0].Paused)
}

func TestLocalRemove(t *testing.T) {
	l := newTestLocal(t)
	l.Save([]timer.Record{{ID: "a"}, {ID: "b"}})
	l.Remove("a")

	got := l.Load()
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestLocalNamespaceIsolation(t *testing.T) {
	dir := t.TempDir()
	one := NewLocal(dir, "one")
	two := NewLocal(dir, "two")

	one.Save([]timer.Record{{ID: "a"}})
	assert.Empty(t, two.Load())
	assert.Len(t, one.Load(), 1)
}
