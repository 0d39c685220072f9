package engine

import (
	"github.com/sentalyr/simple-timer-card/internal/timer"
)

// Derive computes the per-tick fields for one raw record: remaining
// time, percent complete, display state and the effective capability
// set. The record itself is not persisted back; derived fields live
// only on the returned Timer.
func Derive(r timer.Record, nowMs int64) timer.Timer {
	t := timer.Timer{Record: r}

	// Resolve missing anchors from whichever pair of fields is present.
	if t.EndTs == nil && !t.Paused && !t.Idle && t.StartTs != nil && t.DurationMs != nil {
		t.EndTs = timer.I64(*t.StartTs + *t.DurationMs)
	}
	if t.StartTs == nil && t.EndTs != nil && t.DurationMs != nil {
		t.StartTs = timer.I64(*t.EndTs - *t.DurationMs)
	}

	switch {
	case t.Idle:
		t.Remaining = t.Duration()
	case t.Finished:
		t.Remaining = 0
	case t.Paused:
		if t.RemainingMs != nil && *t.RemainingMs > 0 {
			t.Remaining = *t.RemainingMs
		}
	case t.EndTs != nil:
		if rem := *t.EndTs - nowMs; rem > 0 {
			t.Remaining = rem
		}
	}

	t.State = deriveState(t)
	t.Percent = derivePercent(t)

	if r.Supports != nil {
		t.Supports = *r.Supports
	} else {
		t.Supports = timer.DefaultSupports(r.Source)
	}
	return t
}

func deriveState(t timer.Timer) timer.State {
	switch {
	case t.Idle:
		return timer.StateIdle
	case t.Finished:
		return timer.StateFinished
	case t.Paused:
		return timer.StatePaused
	case t.Remaining <= 0:
		return timer.StateExpired
	default:
		return timer.StateActive
	}
}

func derivePercent(t timer.Timer) float64 {
	d := t.Duration()
	if d <= 0 {
		return 0
	}
	p := float64(d-t.Remaining) / float64(d) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
