package timer

import "time"

// Normalize migrates legacy field spellings on a loaded record and
// re-asserts the pause invariant: paused timers carry remaining_ms and
// no end_ts, running timers the reverse. It reports whether anything
// changed so callers can rewrite storage once.
func Normalize(r Record) (Record, bool) {
	changed := false

	if r.StartTs == nil {
		switch v := r.LegacyStart.(type) {
		case float64:
			r.StartTs = I64(int64(v))
			changed = true
		case string:
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				r.StartTs = I64(ts.UnixMilli())
				changed = true
			}
		}
	}

	if r.Paused {
		if r.RemainingMs == nil && r.LegacyEnd != nil {
			r.RemainingMs = I64(int64(*r.LegacyEnd))
			changed = true
		}
		if r.EndTs != nil {
			r.EndTs = nil
			changed = true
		}
	} else {
		if r.EndTs == nil && r.LegacyEnd != nil {
			r.EndTs = I64(int64(*r.LegacyEnd))
			changed = true
		}
		if r.RemainingMs != nil {
			r.RemainingMs = nil
			changed = true
		}
	}

	if r.LegacyStart != nil {
		r.LegacyStart = nil
		changed = true
	}
	if r.LegacyEnd != nil {
		r.LegacyEnd = nil
		changed = true
	}

	return r, changed
}

// NormalizeAll applies Normalize over a loaded list.
func NormalizeAll(records []Record) ([]Record, bool) {
	out := make([]Record, len(records))
	changed := false
	for i, r := range records {
		var c bool
		out[i], c = Normalize(r)
		changed = changed || c
	}
	return out, changed
}

// Valid reports whether a stored record has the required shape. Records
// failing this check are dropped on load rather than surfaced as errors.
func (r Record) Valid() bool {
	return r.ID != ""
}

// PauseUpdates captures the frozen remaining time for a pause mutation.
func PauseUpdates(t Timer, nowMs int64) (remainingMs int64) {
	if t.Remaining > 0 {
		return t.Remaining
	}
	if t.Remaining == 0 {
		return 0
	}
	return remainingFromStored(t.Record, nowMs)
}

// ResumeUpdates recomputes the wall-clock anchors for a resume mutation:
// the new end is now + frozen remaining, and the start is back-dated by
// the elapsed fraction so percent-complete is preserved.
func ResumeUpdates(t Timer, nowMs int64) (startTs, endTs int64) {
	remaining := t.Remaining
	if remaining < 0 {
		remaining = remainingFromStored(t.Record, nowMs)
	}
	duration := t.Duration()
	var elapsed int64
	if duration > 0 {
		elapsed = duration - remaining
		if elapsed < 0 {
			elapsed = 0
		}
	}
	return nowMs - elapsed, nowMs + remaining
}

func remainingFromStored(r Record, nowMs int64) int64 {
	if r.RemainingMs != nil {
		if *r.RemainingMs < 0 {
			return 0
		}
		return *r.RemainingMs
	}
	if r.EndTs != nil {
		d := *r.EndTs - nowMs
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}
